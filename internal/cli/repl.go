package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// runREPL reads a line, takes the first token as the command, and dispatches.
// Handler errors are printed, never fatal: the loop exits only on EOF or
// "exit"/"quit".
func (a *App) runREPL(ctx context.Context, in io.Reader) {
	a.printf("FocusKeeper (type 'help' for commands)")
	scanner := bufio.NewScanner(in)

	for {
		a.printf("fk %s >", a.prompt())
		if !scanner.Scan() {
			return
		}
		if a.dispatch(ctx, scanner.Text()) {
			return
		}
	}
}

// dispatch executes one command line; it returns true when the REPL should exit.
func (a *App) dispatch(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "help":
		a.printf("Timer:    start <topic> [folder] | pause | resume | stop | status")
		a.printf("Lifecycle: bg | fg (simulate background/foreground)")
		a.printf("Folders:  folders | mkfolder <name> [color] | edfolder <name> <newname> [color] | rmfolder <name>")
		a.printf("Topics:   topics [folder] | assign <topic> <folder|-> | rename <old> <new> | rmtopic <topic> | allowbg <topic> on|off")
		a.printf("Stats:    stats [days] | streak")
		a.printf("Other:    sync | exit")

	case "start":
		err = a.cmdStart(ctx, args)
	case "pause":
		a.timer.Pause(ctx)
	case "resume":
		a.timer.Resume(ctx)
	case "stop":
		err = a.cmdStop(ctx)
	case "status":
		a.cmdStatus()

	case "bg":
		a.timer.OnBackground(ctx)
	case "fg":
		a.timer.OnForeground(ctx)

	case "folders":
		err = a.cmdFolders(ctx)
	case "mkfolder":
		err = a.cmdMkFolder(ctx, args)
	case "edfolder":
		err = a.cmdEdFolder(ctx, args)
	case "rmfolder":
		err = a.cmdRmFolder(ctx, args)

	case "topics":
		err = a.cmdTopics(ctx, args)
	case "assign":
		err = a.cmdAssign(ctx, args)
	case "rename":
		err = a.cmdRename(ctx, args)
	case "rmtopic":
		err = a.cmdRmTopic(ctx, args)
	case "allowbg":
		err = a.cmdAllowBackground(ctx, args)

	case "stats":
		err = a.cmdStats(ctx, args)
	case "streak":
		err = a.cmdStreak(ctx)

	case "sync":
		err = a.cmdSync(ctx)

	case "exit", "quit":
		a.printf("Bye!")
		return true

	default:
		a.printf("Unknown command: %s", cmd)
	}

	if err != nil {
		a.printf("error: %v", err)
	}
	return false
}

func (a *App) prompt() string {
	switch {
	case a.timer.IsRunning():
		return a.timer.CurrentTopic() + " " + formatElapsed(a.timer.ElapsedSeconds())
	case a.timer.IsPaused():
		return a.timer.CurrentTopic() + " (paused)"
	default:
		return "idle"
	}
}
