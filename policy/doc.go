// Package policy implements the door intercom control loop on top of a supervised phone.
package policy

//go:generate errtrace -w .
