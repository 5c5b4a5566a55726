package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/nowplaying/internal/core/settings"
)

// SettingsCheck verifies every stored presence setting parses and is in
// range. With fix enabled, invalid and unknown keys are removed so the
// defaults apply again.
type SettingsCheck struct {
	store settings.Store
	fix   bool
}

// NewSettingsCheck creates a settings check.
func NewSettingsCheck(store settings.Store, fix bool) *SettingsCheck {
	return &SettingsCheck{store: store, fix: fix}
}

func (c *SettingsCheck) Name() string {
	return "Presence Settings"
}

func (c *SettingsCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	entries, err := c.store.List(ctx, settings.Prefix)
	if err != nil {
		result.add(StatusFail, "Read settings", err.Error())
		return result
	}

	stored := make(map[string]string, len(entries))
	for _, e := range entries {
		stored[e.Key] = e.Value
	}

	for _, def := range settings.Definitions {
		value, ok := stored[def.Key]
		delete(stored, def.Key)

		if !ok {
			result.add(StatusPass, def.Key, "default")
			continue
		}

		if err := def.Check(value); err != nil {
			result.Items = append(result.Items, c.repair(ctx, def.Key, err))
			continue
		}
		result.add(StatusPass, def.Key, summarize(value))
	}

	for key := range stored {
		item := c.repair(ctx, key, errors.New("unknown setting"))
		item.Status = StatusWarn
		result.Items = append(result.Items, item)
	}

	return result
}

// repair reports a bad key and, when fixing, deletes it.
func (c *SettingsCheck) repair(ctx context.Context, key string, problem error) CheckItem {
	item := CheckItem{Label: key, Status: StatusFail, Detail: problem.Error(), Fixable: true}
	if !c.fix {
		return item
	}

	if err := c.store.Delete(ctx, key); err != nil {
		item.Detail = fmt.Sprintf("%s (reset failed: %v)", problem, err)
		return item
	}

	item.Status = StatusPass
	item.Fixable = false
	item.Detail = fmt.Sprintf("%s, reset to default", problem)
	return item
}

func summarize(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	if len(v) > 60 {
		return v[:57] + "..."
	}
	return v
}
