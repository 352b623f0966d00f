package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
)

func formatElapsed(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// folderIDByName resolves a folder name typed by the user to its local id.
func (a *App) folderIDByName(ctx context.Context, name string) (int64, error) {
	f, err := a.store.Folders.FindByName(ctx, a.userID, name)
	if errors.Is(err, common.ErrNotFound) {
		return 0, fmt.Errorf("no folder named %q", name)
	}
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

func (a *App) cmdStart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: start <topic> [folder]")
	}

	var folderID *int64
	if len(args) > 1 {
		id, err := a.folderIDByName(ctx, args[1])
		if err != nil {
			return err
		}
		folderID = &id
	}

	if err := a.timer.Start(ctx, args[0], folderID); err != nil {
		return err
	}
	a.printf("started %q", args[0])
	return nil
}

func (a *App) cmdStop(ctx context.Context) error {
	topic := a.timer.CurrentTopic()
	elapsed := a.timer.ElapsedSeconds()
	if err := a.timer.Stop(ctx); err != nil {
		return err
	}
	if topic != "" {
		a.printf("stopped %q after %s", topic, formatElapsed(elapsed))
	}
	return nil
}

func (a *App) cmdStatus() {
	switch {
	case a.timer.IsRunning():
		a.printf("running %q for %s", a.timer.CurrentTopic(), formatElapsed(a.timer.ElapsedSeconds()))
	case a.timer.IsPaused():
		a.printf("paused on %q at %s", a.timer.CurrentTopic(), formatElapsed(a.timer.ElapsedSeconds()))
	default:
		a.printf("idle")
	}
	if name := a.timer.CurrentFolderName(); name != "" {
		a.printf("folder: %s", name)
	}
}

func (a *App) cmdFolders(ctx context.Context) error {
	list, err := a.store.Folders.List(ctx, a.userID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("no folders")
		return nil
	}
	for _, f := range list {
		a.printf("  %-20s %s", f.Name, f.Color)
	}
	return nil
}

func (a *App) cmdMkFolder(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: mkfolder <name> [color]")
	}
	color := ""
	if len(args) > 1 {
		color = args[1]
	}
	if _, err := a.store.Folders.Create(ctx, a.userID, args[0], color, "", time.Now()); err != nil {
		return err
	}
	a.printf("created folder %q", args[0])
	return nil
}

func (a *App) cmdEdFolder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: edfolder <name> <newname> [color]")
	}
	f, err := a.store.Folders.FindByName(ctx, a.userID, args[0])
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("no folder named %q", args[0])
	}
	if err != nil {
		return err
	}

	color := f.Color
	if len(args) > 2 {
		color = args[2]
	}
	if err := a.store.Folders.Update(ctx, f.ID, args[1], color, f.Icon, time.Now()); err != nil {
		return err
	}
	a.printf("updated folder %q", args[1])
	return nil
}

func (a *App) cmdRmFolder(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: rmfolder <name>")
	}
	id, err := a.folderIDByName(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.store.DeleteFolder(ctx, a.userID, id, time.Now()); err != nil {
		return err
	}
	a.printf("deleted folder %q", args[0])
	return nil
}

func (a *App) cmdTopics(ctx context.Context, args []string) error {
	var topics []string
	var err error
	if len(args) > 0 {
		var id int64
		id, err = a.folderIDByName(ctx, args[0])
		if err != nil {
			return err
		}
		topics, err = a.store.Topics.TopicsByFolder(ctx, a.userID, id)
	} else {
		topics, err = a.store.Topics.UnfolderedTopics(ctx, a.userID)
	}
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		a.printf("no topics")
		return nil
	}
	for _, topic := range topics {
		a.printf("  %s", topic)
	}
	return nil
}

func (a *App) cmdAssign(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: assign <topic> <folder|->")
	}

	var folderID *int64
	if args[1] != "-" {
		id, err := a.folderIDByName(ctx, args[1])
		if err != nil {
			return err
		}
		folderID = &id
	}

	if err := a.store.AssignTopicFolder(ctx, a.userID, args[0], folderID, time.Now()); err != nil {
		return err
	}
	if folderID == nil {
		a.printf("detached %q", args[0])
	} else {
		a.printf("filed %q under %q", args[0], args[1])
	}
	return nil
}

func (a *App) cmdRename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rename <old> <new>")
	}
	if err := a.store.RenameTopic(ctx, a.userID, args[0], args[1], time.Now()); err != nil {
		return err
	}
	a.printf("renamed %q to %q", args[0], args[1])
	return nil
}

func (a *App) cmdRmTopic(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rmtopic <topic>")
	}
	if err := a.store.DeleteTopic(ctx, a.userID, args[0], time.Now()); err != nil {
		return err
	}
	a.printf("deleted topic %q and its sessions", args[0])
	return nil
}

func (a *App) cmdAllowBackground(ctx context.Context, args []string) error {
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		return errors.New("usage: allowbg <topic> on|off")
	}
	if err := a.store.SetTopicBackground(ctx, a.userID, args[0], args[1] == "on", time.Now()); err != nil {
		return err
	}
	a.printf("background timing %s for %q", args[1], args[0])
	return nil
}

func (a *App) cmdStats(ctx context.Context, args []string) error {
	days := 7
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errors.New("usage: stats [days]")
		}
		days = n
	}

	totals, err := a.store.Sessions.DailyTotals(ctx, a.userID, days)
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		a.printf("no recorded time in the last %d days", days)
		return nil
	}

	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		a.printf("  %s  %s", d, formatElapsed(totals[d]))
	}
	return nil
}

func (a *App) cmdStreak(ctx context.Context) error {
	streak, err := a.store.Sessions.CurrentStreak(ctx, a.userID)
	if err != nil {
		return err
	}
	a.printf("current streak: %d day(s)", streak)
	return nil
}

func (a *App) cmdSync(ctx context.Context) error {
	res, err := a.syncer.Sync(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		a.printf("sync skipped (offline or already running)")
		return nil
	}
	a.printf("sync: %d deduped, %d uploaded, %d downloaded", res.Deduped, res.Uploaded, res.Downloaded)
	return nil
}
