package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"trailbot/internal/adapters/favorites"
)

const usage = `usage: favorites [-path file] <command> [pair]

commands:
  list           show the market list, favorites first
  add <pair>     mark a pair as favorite
  remove <pair>  unmark a pair
  toggle <pair>  flip the favorite flag of a pair
`

func main() {
	_ = godotenv.Load()

	defaultPath := os.Getenv("FAVORITES_PATH")
	if defaultPath == "" {
		defaultPath = "./data/favorites.json"
	}
	path := flag.String("path", defaultPath, "favorites JSON file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	store, err := favorites.NewStore(*path)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch cmd := args[0]; cmd {
	case "list":
		markets, err := store.Markets(favorites.DefaultMarkets)
		if err != nil {
			log.Fatalf("Error loading favorites: %v", err)
		}
		for _, m := range markets {
			mark := " "
			if m.Favorite {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, m.Pair)
		}
	case "add", "remove", "toggle":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		pair := args[1]
		var fav bool
		switch cmd {
		case "add":
			fav, err = true, store.Set(pair, true)
		case "remove":
			fav, err = false, store.Set(pair, false)
		default:
			fav, err = store.Toggle(pair)
		}
		if err != nil {
			log.Fatalf("Error updating favorites: %v", err)
		}
		state := "removed from"
		if fav {
			state = "added to"
		}
		fmt.Printf("%s %s favorites\n", pair, state)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
