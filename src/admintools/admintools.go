package admintools

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/website"
	"github.com/spf13/cobra"
)

func init() {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Miscellaneous admin commands",
	}
	website.WebsiteCommand.AddCommand(adminCommand)

	makeAdminCommand := &cobra.Command{
		Use:   "makeadmin [username]",
		Short: "Make a user the site administrator",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a username.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			err := blogdata.MakeAdmin(ctx, conn, args[0])
			exitOnUserError(err, args[0])

			fmt.Printf("%s is now the administrator.\n", args[0])
		},
	}
	adminCommand.AddCommand(makeAdminCommand)

	setPasswordCommand := &cobra.Command{
		Use:   "setpassword [username] [new password]",
		Short: "Replace a user's password",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a username and a password.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			username := args[0]
			password := args[1]

			if errs := blogdata.ValidatePasswordChange(password, password); len(errs) > 0 {
				fmt.Printf("Bad password: %v\n", errs)
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			user, err := blogdata.FetchUserByUsername(ctx, conn, username)
			if errors.Is(err, db.NotFound) {
				err = blogdata.ErrNoSuchUser
			}
			exitOnUserError(err, username)

			err = auth.SetPassword(ctx, conn, user.ID, password)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Successfully updated password for '%s'\n", user.Username)
		},
	}
	adminCommand.AddCommand(setPasswordCommand)

	addWriterCommand := &cobra.Command{
		Use:   "addwriter [username]",
		Short: "Allow a user to publish articles",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a username.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			exitOnUserError(blogdata.AddWriter(ctx, conn, args[0]), args[0])
			fmt.Printf("%s can now write articles.\n", args[0])
		},
	}
	adminCommand.AddCommand(addWriterCommand)

	removeWriterCommand := &cobra.Command{
		Use:   "removewriter [username]",
		Short: "Stop a user from publishing articles",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a username.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			exitOnUserError(blogdata.RemoveWriter(ctx, conn, args[0]), args[0])
			fmt.Printf("%s is no longer a writer.\n", args[0])
		},
	}
	adminCommand.AddCommand(removeWriterCommand)

	reconcileLikesCommand := &cobra.Command{
		Use:   "reconcilelikes",
		Short: "Recompute every article's like count from the stored likes",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			conn := db.NewConn()
			defer conn.Close(ctx)

			fixed, err := blogdata.ReconcileLikes(ctx, conn)
			if err != nil {
				panic(err)
			}
			fmt.Printf("Fixed the like count of %d article(s).\n", fixed)
		},
	}
	adminCommand.AddCommand(reconcileLikesCommand)

	addImportLegacyCommand(website.WebsiteCommand)
}

func exitOnUserError(err error, username string) {
	if err == nil {
		return
	}
	if errors.Is(err, blogdata.ErrNoSuchUser) {
		fmt.Printf("User '%s' not found\n", username)
		os.Exit(1)
	}
	panic(err)
}
