// Command docent is the operator CLI for the docent daemon: it inspects
// daemon status, manages experience definitions and their publish state, and
// lists or abandons guest sessions over the IPC socket.
package main
