package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-portal-sync/internal/common/errs"

	"github.com/google/uuid"
)

// Ledger appends outcome rows. Callers treat failures as best effort.
type Ledger interface {
	Record(ctx context.Context, entry Entry) (string, error)
}

// normalize checks required fields, drops identifiers that are not UUIDs and
// fills in the row id and date.
func normalize(entry Entry, now time.Time) (Entry, error) {
	var missing []string
	if strings.TrimSpace(entry.LogType) == "" {
		missing = append(missing, "log_type")
	}
	if strings.TrimSpace(entry.ModuleName) == "" {
		missing = append(missing, "module_name")
	}
	if strings.TrimSpace(entry.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return Entry{}, errs.Errorf(errs.KindValidation, "ledger.record", "missing required fields: %s", strings.Join(missing, ", "))
	}

	entry.SourceID = normalizeID(entry.SourceID)
	entry.DestinationID = normalizeID(entry.DestinationID)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.LogDate.IsZero() {
		entry.LogDate = now
	}
	entry.LogDate = entry.LogDate.UTC()
	return entry, nil
}

// normalizeID keeps only the hyphenated 36 character form. uuid.Parse alone
// would also accept braces, urn:uuid: prefixes and bare hex.
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) != 36 {
		return ""
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// MemoryLedger keeps entries in memory.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []Entry
	// Err, when set, is returned by every Record call.
	Err error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) Record(_ context.Context, entry Entry) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	entry, err := normalize(entry, time.Now())
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return entry.ID, nil
}

// Entries returns a copy of the recorded rows.
func (m *MemoryLedger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
