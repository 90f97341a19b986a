// Package notify implements the notification dispatcher: a publish target
// that fans a message out to every subscriber of one channel. Subscribers
// deliver the message by email over SMTP or write it to the log.
package notify
