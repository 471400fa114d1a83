// Package linphone supervises a linphonec process and derives a call state from its console output.
//
// The client is driven through its standard input. Every command is echoed after the prompt,
// so the output is a sequence of prompt-delimited segments. [Scanner] splits it into [Record] values,
// each pairing a command with the text the client printed in response.
//
// [Phone] spawns the client, restarts it when it exits and polls it with "status register"
// and "status hook". Responses to these polls update a [State] of three [Tristate] flags:
// registered, dialing and in call. Every new process starts a new session with a fully unknown state.
package linphone

//go:generate errtrace -w .
