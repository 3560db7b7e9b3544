// Command inspect dumps the message logs, rooms and users stored in a chat hub badger directory.
package main

import (
	"chat-hub/domain"
	"chat-hub/internal"
	"flag"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	// INSPECT_COLOURS colours the message kinds
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatal("Config error: ", err)
	}
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	// BypassLockGuard allows opening while the hub holds the lock
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Scope", "ID", "Kind", "Author", "Created", "Edited", "Lang", "Body"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.AppendBulk(toRows(key, v, config.Colours))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func toRows(key string, value []byte, colours bool) [][]string {
	rows := make([][]string, 0)
	for _, row := range internal.StoredEntryMapper(key, value) {
		scope := row.Scope
		if scope == "" {
			scope = row.Key
		}
		rows = append(rows, []string{
			scope,
			row.ID,
			kindLabel(row.Kind, colours),
			row.Author,
			row.Created,
			row.Edited,
			row.Lang,
			row.Detail,
		})
	}
	return rows
}

func kindLabel(kind string, colours bool) string {
	if !colours || kind == "" {
		return kind
	}
	if kind == domain.KindSystem.String() {
		return color.New(color.FgYellow).Render(kind)
	}
	return color.New(color.FgGreen).Render(kind)
}
