// admin 管理命令：创建/删除分组、创建用户
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const usage = `usage: admin <command> [flags]

commands:
  create-group  --title T --slug S [--description D]
  delete-group  --slug S
  create-user   --username U --password P [--email E] [--first-name F] [--last-name L]
  delete-user   --username U
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "admin %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	_ = logger.Init("release")
	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	groups := service.NewGroupService(repository.NewGroupRepository(db))
	users := service.NewUserService(repository.NewUserRepository(db))

	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	switch cmd {
	case "create-group":
		title := fs.String("title", "", "group title")
		slug := fs.String("slug", "", "unique slug (latin letters, digits, - and _)")
		desc := fs.String("description", "", "group description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		g, err := groups.Create(ctx, *title, *slug, *desc)
		if err != nil {
			return err
		}
		fmt.Printf("group %d created: %s (/group/%s/)\n", g.ID, g.Title, g.Slug)

	case "delete-group":
		slug := fs.String("slug", "", "group slug")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := groups.Delete(ctx, *slug); err != nil {
			return err
		}
		fmt.Printf("group %s deleted, its posts are now ungrouped\n", *slug)

	case "create-user":
		in := service.RegisterInput{}
		fs.StringVar(&in.Username, "username", "", "username")
		fs.StringVar(&in.Password, "password", "", "password")
		fs.StringVar(&in.Email, "email", "", "email")
		fs.StringVar(&in.FirstName, "first-name", "", "first name")
		fs.StringVar(&in.LastName, "last-name", "", "last name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if in.Username == "" || in.Password == "" {
			return fmt.Errorf("--username and --password are required")
		}
		u, err := users.Register(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("user %d created: %s\n", u.ID, u.Username)

	case "delete-user":
		username := fs.String("username", "", "username")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := users.Delete(ctx, *username); err != nil {
			return err
		}
		fmt.Printf("user %s deleted with posts, comments and follows\n", *username)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
