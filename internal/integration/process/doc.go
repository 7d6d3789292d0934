// Package process runs shell command lines as supervised child processes.
//
// The Supervisor tracks every running child by a UUID so that shutdown can
// kill leftovers. Run starts a command, captures its combined output and
// waits for it, killing it when the context ends:
//
//	supervisor := process.NewSupervisor()
//	defer supervisor.Shutdown(time.Second)
//
//	proc, err := supervisor.Run(ctx, "ls", exec.Command("sh", "-c", "ls -la"))
//	fmt.Print(proc.Output())
//	fmt.Println("exit code:", proc.ExitCode())
package process
