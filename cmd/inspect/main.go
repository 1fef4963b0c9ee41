// Command inspect dumps the messenger's badger contents as tables:
// conversations with their live/tombstone counts, or user accounts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"messenger-lab/repositories"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan (conv: or user:)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	switch {
	case strings.HasPrefix(*prefix, "user:"):
		dumpUsers(db)
	default:
		dumpConversations(db)
	}
}

func dumpConversations(db *badger.DB) {
	color.Bold.Println("Conversations")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Parties", "Messages", "Live", "Tombstones", "Last activity"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte("conv:")
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				key, messages, err := repositories.DecodeConversation(v)
				if err != nil {
					fmt.Printf("Error decoding key %s: %v\n", it.Item().Key(), err)
					return nil
				}

				live, tombstones := 0, 0
				var last time.Time
				for _, m := range messages {
					if m.Deleted {
						tombstones++
					} else {
						live++
					}
					if m.CreatedAt.After(last) {
						last = m.CreatedAt
					}
				}

				lastStr := "-"
				if !last.IsZero() {
					lastStr = last.Format(time.RFC3339)
				}
				table.Append([]string{
					key.A + " / " + key.B,
					fmt.Sprintf("%d", len(messages)),
					fmt.Sprintf("%d", live),
					fmt.Sprintf("%d", tombstones),
					lastStr,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func dumpUsers(db *badger.DB) {
	color.Bold.Println("Users")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Username", "ID", "Roles", "Created"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte("user:")
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var user repositories.User
				if err := json.Unmarshal(v, &user); err != nil {
					fmt.Printf("Error decoding key %s: %v\n", it.Item().Key(), err)
					return nil
				}
				table.Append([]string{
					user.Username,
					user.ID,
					strings.Join(user.Roles, ","),
					user.CreatedAt.Format(time.RFC3339),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}
