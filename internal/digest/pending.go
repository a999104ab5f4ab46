// Package digest collects parent messages that were handed to staff and
// sends the centre director one summary per working day.
package digest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/intent"
	"github.com/decoders-hk/centre-assistant-go/internal/sliceutil"
)

// Item is one unanswered parent message.
type Item struct {
	Date      string
	SK        string
	SessionID string
	TS        int64
	Message   string
	Lang      string
	Flags     intent.SchedulingFlags
	Resolved  bool
	ExpireAt  int64
}

// NewItem builds an unresolved item filed under the Hong Kong day of at.
func NewItem(sessionID, message, lang string, flags intent.SchedulingFlags, at time.Time) Item {
	ts := at.Unix()
	return Item{
		Date:      hktime.DayKey(at),
		SK:        fmt.Sprintf("%s#%d", sessionID, ts),
		SessionID: sessionID,
		TS:        ts,
		Message:   message,
		Lang:      lang,
		Flags:     flags,
	}
}

// Time returns the item's timestamp in Hong Kong time.
func (it Item) Time() time.Time {
	return time.Unix(it.TS, 0).In(hktime.Location())
}

// Store persists pending items, partitioned by day.
type Store interface {
	Add(ctx context.Context, item Item) error
	// ResolveSession marks every item of sessionID filed under day as answered.
	ResolveSession(ctx context.Context, day, sessionID string) error
	// ListUnresolved returns the latest unresolved item per session,
	// newest first, at most limit items.
	ListUnresolved(ctx context.Context, day string, limit int) ([]Item, error)
}

// latestPerSession keeps the newest item per session, sorted newest first.
func latestPerSession(items []Item, limit int) []Item {
	out := sliceutil.LatestBy(items,
		func(it Item) string { return it.SessionID },
		func(a, b Item) bool { return a.TS > b.TS })
	slices.SortFunc(out, func(a, b Item) int {
		if c := cmp.Compare(b.TS, a.TS); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})

	if limit < 1 {
		limit = 1
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
