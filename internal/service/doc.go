// Package service contains the application use cases for tasks. It
// orchestrates interactions between domain objects, the task store (defined
// in internal/store) and the reminder coordinator.
//
// Key components:
//
// 1. TaskService:
//   - Creates, lists, reads, updates and deletes an owner's tasks
//   - Delegates every reminder side effect of an update or delete to the
//     reminder coordinator, so completion and deletion never leave a live
//     schedule entry behind
//
// 2. Error Handling:
//   - Store "not found" errors surface as ErrTaskNotFound
//   - Other failures are wrapped in TaskServiceError and keep their cause for
//     errors.Is/errors.As
//
// The service layer depends on domain entities and store interfaces, never on
// specific infrastructure implementations.
package service
