package moderation

import (
	"chat-hub/storage"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func Test_Moderation_Benchmark(t *testing.T) {
	// 1. Setup Badger (Temporary)
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	db, err := storage.OpenBadger(t.TempDir(), log)
	req.NoError(err)
	defer func() { _ = db.Close() }()

	wordCount := 100_000

	// --- Phase 1: SEEDING ---
	startSeed := time.Now()
	wb := db.NewWriteBatch()
	for i := 0; i < wordCount; i++ {
		req.NoError(wb.Set([]byte(fmt.Sprintf("censored:word%d", i)), nil))
	}
	req.NoError(wb.Flush())
	t.Logf("Seeding %d words: %v", wordCount, time.Since(startSeed))

	// --- Phase 2: LOADING ---
	startLoad := time.Now()
	var words []string
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // words live in the keys
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("censored:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			words = append(words, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	req.NoError(err)
	req.Len(words, wordCount)
	t.Logf("Loading from Badger: %v", time.Since(startLoad))

	// --- Phase 3: BUILDING AHO-CORASICK ---
	startBuild := time.Now()
	moderator, err := NewModerator(words, '*', log)
	req.NoError(err)
	t.Logf("Building AC automaton: %v", time.Since(startBuild))

	// --- Phase 4: CENSORING ---
	body := strings.Repeat("nothing to see here ", 50) + "word42"
	startCensor := time.Now()
	censored, found := moderator.Censor(body)
	t.Logf("Censoring %d bytes: %v", len(body), time.Since(startCensor))
	req.NotEmpty(found)
	req.NotContains(censored, "word42")
	t.Logf("Total startup time for moderation: %v", time.Since(startLoad))
}
