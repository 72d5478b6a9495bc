package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/pressgang/wpmigrate/internal/config"
	"github.com/pressgang/wpmigrate/internal/database"
)

// DeletePostsCommand removes all imported posts, comments, categories
// and tags from the destination blog so an import can be re-run from
// scratch. Fetched media files are left on disk.
type DeletePostsCommand struct {
	DatabasePath string
	Verbose      bool
}

func NewDeletePostsCommand() *DeletePostsCommand {
	return &DeletePostsCommand{}
}

func (cmd *DeletePostsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("delete-posts", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the destination blog database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Log what gets deleted")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s delete-posts [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete all imported blog posts, their comments, categories and tags.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *DeletePostsCommand) Run() error {
	db, err := database.New(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	blog, err := db.FirstBlog()
	if err != nil {
		return err
	}
	if blog == nil {
		fmt.Println("No blog found - nothing to delete")
		return nil
	}

	result, err := db.DeletePosts(blog.ID, cmd.Verbose)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted:\n  Posts: %d\n  Comments: %d\n  Categories: %d\n  Tags: %d\n",
		result.Posts, result.Comments, result.Categories, result.Tags)
	return nil
}

// DeleteCommentsCommand removes only the imported comments, keeping
// posts in place.
type DeleteCommentsCommand struct {
	DatabasePath string
}

func NewDeleteCommentsCommand() *DeleteCommentsCommand {
	return &DeleteCommentsCommand{}
}

func (cmd *DeleteCommentsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("delete-comments", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the destination blog database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s delete-comments [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete all imported comments from the blog's posts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *DeleteCommentsCommand) Run() error {
	db, err := database.New(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	blog, err := db.FirstBlog()
	if err != nil {
		return err
	}
	if blog == nil {
		fmt.Println("No blog found - nothing to delete")
		return nil
	}

	deleted, err := db.DeleteComments(blog.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d comments\n", deleted)
	return nil
}
