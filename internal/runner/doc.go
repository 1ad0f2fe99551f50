// Package runner executes external commands for the pipeline stages.
//
// A Command is an argument vector plus an output target, an optional
// user-facing failure message, a failure policy and a silent flag. Runner.Run
// validates the command before anything is spawned, runs exactly one child
// process, blocks until it exits and interprets the exit status:
//
//   - 0 is success.
//   - 141 is success. It is the status of a process killed by SIGPIPE when a
//     downstream reader exits early. A child killed by SIGPIPE under direct
//     execution is reported as 141 too.
//   - anything else is a failure, logged with the exit code and the rendered
//     command line, then returned as an error or, under PolicyTerminate,
//     turned into process exit status 1.
//
// Pipeline stages always use PolicyRaise and leave termination to the CLI.
package runner
