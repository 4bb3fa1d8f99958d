package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	a.mu.Lock()
	if a.userName != "" {
		s = a.userName + " "
	}
	a.mu.Unlock()
	s = s + string(a.mode())
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "Welcome to StoryKeeper (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "sk %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: add, (l)ist, favorites, fav <id>, unfav <id>, sync, status, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, list, favorites, status, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "add":
			a.addStory(ctx)
		case "list", "l":
			a.list(ctx)
		case "favorites":
			a.listFavorites(ctx)
		case "fav":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: fav <story id>")
				continue
			}
			a.favorite(ctx, args[0])
		case "unfav":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: unfav <story id>")
				continue
			}
			a.unfavorite(ctx, args[0])
		case "sync":
			a.syncNow(ctx)
		case "status":
			a.status(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}

}
