package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photoshare/internal/feed"
	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/screens"
	"photoshare/internal/validation"

	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run `photoshare login` first")

// userError prefers the message the screen shows over the raw error.
func userError(err error, shown string) error {
	if shown != "" {
		return errors.New(shown)
	}
	if models.IsSuppressed(err) {
		return nil
	}
	return err
}

// openPosts resolves path through the guards and builds the screen that
// renders there.
func openPosts(ctx context.Context, w io.Writer, path string) (*screens.Posts, error) {
	res := current.nav.Navigate(path)
	if res.Redirected() {
		fmt.Fprintf(w, "(%s redirected to %s)\n", res.Requested, res.Path)
	}

	var p *screens.Posts
	switch res.Screen {
	case guard.ScreenLogin, guard.ScreenSignup:
		return nil, errNotSignedIn
	case guard.ScreenFeed:
		p = screens.NewFeed(current.client, current.store, current.sizes(), current.logger)
	case guard.ScreenDashboard:
		p = screens.NewDashboard(current.client, current.store, current.sizes(), current.logger)
	case guard.ScreenSearch:
		p = screens.NewSearch(current.client, current.store, current.sizes(), current.logger)
	default:
		return nil, fmt.Errorf("no post screen at %s", res.Path)
	}
	if err := p.Open(ctx); err != nil && !models.IsSuppressed(err) {
		p.Close()
		return nil, userError(err, p.LoadError())
	}
	return p, nil
}

// home opens the session's landing screen.
func home(ctx context.Context, w io.Writer) (*screens.Posts, error) {
	if !current.store.IsAuthenticated() {
		return nil, errNotSignedIn
	}
	return openPosts(ctx, w, guard.RoleHome(current.store.Role()))
}

func renderPost(w io.Writer, p *screens.Posts, post models.Post) {
	title := post.Title
	if title == "" {
		title = "(untitled)"
	}
	heart := " "
	if p.Liked(post) {
		heart = "*"
	}
	fmt.Fprintf(w, "%s %s  %s\n", heart, post.ID, title)
	if post.Caption != "" {
		fmt.Fprintf(w, "    %s\n", post.Caption)
	}
	meta := []string{fmt.Sprintf("%d likes", post.LikeCount())}
	if post.Location != "" {
		meta = append(meta, post.Location)
	}
	if post.CreatorEmail != "" {
		meta = append(meta, "by "+post.CreatorEmail)
	}
	if d := screens.FormatPostDate(post.CreatedAt, time.Now()); d != "" {
		meta = append(meta, d)
	}
	a := p.Affordances(post)
	if a.Download {
		meta = append(meta, "download: "+current.client.DownloadURL(post.ID))
	}
	if a.Edit {
		meta = append(meta, "editable")
	}
	fmt.Fprintf(w, "    %s\n", strings.Join(meta, " | "))
	if msg := p.PostError(post.ID); msg != "" {
		fmt.Fprintf(w, "    ! %s\n", msg)
	}
}

func renderWindow(w io.Writer, p *screens.Posts) {
	if hint := p.Hint(); hint != "" {
		fmt.Fprintln(w, hint)
		return
	}
	win := p.Window()
	for _, post := range win.Items {
		renderPost(w, p, post)
	}
	fmt.Fprintf(w, "Showing %d of %d", len(win.Items), win.Total)
	if win.CanLoadMore {
		fmt.Fprint(w, " (use --more to see more)")
	}
	fmt.Fprintln(w)
}

func renderPage(w io.Writer, p *screens.Posts) {
	if hint := p.Hint(); hint != "" {
		fmt.Fprintln(w, hint)
		return
	}
	page := p.Page()
	for _, post := range page.Items {
		renderPost(w, p, post)
	}
	fmt.Fprintf(w, "%s. Page %d of %d, sorted by %s\n", page.Summary(), page.Page, page.TotalPages, page.Sort.Label())
}

func render(w io.Writer, p *screens.Posts) {
	if p.Screen == guard.ScreenDashboard {
		renderPage(w, p)
		return
	}
	renderWindow(w, p)
}

var (
	listMore int
	listPage int
	listSort string
)

func init() {
	for _, cmd := range []*cobra.Command{cmdFeed, cmdSearch} {
		cmd.Flags().IntVar(&listMore, "more", 0, "Load this many extra batches")
	}
	cmdDashboard.Flags().IntVar(&listPage, "page", 1, "Page number")
	cmdDashboard.Flags().StringVar(&listSort, "sort", string(feed.SortDateDesc), "date_desc, date_asc or likes_desc")
}

var cmdFeed = &cobra.Command{
	Use:   "feed",
	Short: "Show the home feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		p, err := openPosts(cmd.Context(), w, guard.PathHome)
		if err != nil {
			return err
		}
		defer p.Close()
		for i := 0; i < listMore; i++ {
			p.LoadMore()
		}
		render(w, p)
		return nil
	},
}

var cmdDashboard = &cobra.Command{
	Use:   "dashboard",
	Short: "Show your posts (creators)",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := feed.ParseSortKey(listSort)
		if err != nil {
			return userError(err, models.UserMessage(err, ""))
		}
		w := cmd.OutOrStdout()
		p, err := openPosts(cmd.Context(), w, guard.PathDashboard)
		if err != nil {
			return err
		}
		defer p.Close()
		p.SetSort(key)
		p.SetPage(listPage)
		render(w, p)
		return nil
	},
}

var cmdSearch = &cobra.Command{
	Use:   "search [query]",
	Short: "Search posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		p, err := openPosts(cmd.Context(), w, guard.PathSearch)
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.Search(cmd.Context(), strings.Join(args, " ")); err != nil && !models.IsSuppressed(err) {
			return userError(err, p.LoadError())
		}
		for i := 0; i < listMore; i++ {
			p.LoadMore()
		}
		renderWindow(w, p)
		return nil
	},
}

var cmdLike = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		p, err := home(cmd.Context(), w)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.ToggleLike(cmd.Context(), args[0]); err != nil {
			return userError(err, p.PostError(args[0]))
		}
		post, _ := p.Post(args[0])
		verb := "Unliked"
		if p.Liked(post) {
			verb = "Liked"
		}
		fmt.Fprintf(w, "%s %s (%d likes)\n", verb, post.ID, post.LikeCount())
		return nil
	},
}

var editTitle, editLocation, editCaption string

func init() {
	cmdEdit.Flags().StringVar(&editTitle, "title", "", "New title")
	cmdEdit.Flags().StringVar(&editLocation, "location", "", "New location")
	cmdEdit.Flags().StringVar(&editCaption, "caption", "", "New caption")
}

var cmdEdit = &cobra.Command{
	Use:   "edit <post-id>",
	Short: "Edit a post's title, location or caption",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := home(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer p.Close()

		id := args[0]
		draft, ok := p.OpenEditor(id)
		if !ok {
			return errors.New(feed.MsgPostNotFound)
		}
		if cmd.Flags().Changed("title") {
			draft.Title = editTitle
		}
		if cmd.Flags().Changed("location") {
			draft.Location = editLocation
		}
		if cmd.Flags().Changed("caption") {
			draft.Caption = editCaption
		}
		if err := p.SaveEdit(cmd.Context(), id, draft); err != nil {
			return userError(err, p.PostError(id))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id)
		return nil
	},
}

var deleteYes bool

func init() {
	cmdDelete.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

var cmdDelete = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := home(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer p.Close()

		prompts := newPrompter(cmd)
		declined := false
		confirm := feed.ConfirmFunc(func(prompt string) bool {
			if deleteYes || prompts.Confirm(prompt) {
				return true
			}
			declined = true
			return false
		})
		id := args[0]
		if err := p.Delete(cmd.Context(), id, confirm); err != nil {
			return userError(err, p.PostError(id))
		}
		if declined {
			fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		return nil
	},
}

var uploadCaption, uploadTitle, uploadLocation string

func init() {
	cmdUpload.Flags().StringVar(&uploadCaption, "caption", "", "Caption")
	cmdUpload.Flags().StringVar(&uploadTitle, "title", "", "Title")
	cmdUpload.Flags().StringVar(&uploadLocation, "location", "", "Location")
}

var cmdUpload = &cobra.Command{
	Use:   "upload <image-file>",
	Short: "Upload a photo (creators)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		w := cmd.OutOrStdout()
		p, err := openPosts(cmd.Context(), w, guard.PathDashboard)
		if err != nil {
			return err
		}
		defer p.Close()

		p.OpenUpload()
		err = p.Create(cmd.Context(), feed.UploadForm{
			FileName: filepath.Base(args[0]),
			Image:    data,
			Caption:  uploadCaption,
			Title:    uploadTitle,
			Location: uploadLocation,
		})
		if err != nil {
			return userError(err, p.Upload().Err)
		}
		fmt.Fprintln(w, "Uploaded.")
		renderPage(w, p)
		return nil
	},
}

var downloadOut string

func init() {
	cmdDownload.Flags().StringVarP(&downloadOut, "output", "o", "", "Destination file (defaults to the remote file name)")
}

var cmdDownload = &cobra.Command{
	Use:   "download <post-id>",
	Short: "Download a post's original image (users and viewers)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !current.store.IsAuthenticated() {
			return errNotSignedIn
		}
		if !current.store.Role().CanDownload() {
			return errors.New("downloads are available to users and viewers")
		}

		tmp, err := os.CreateTemp(".", ".photoshare-download-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		name, n, err := current.client.Download(cmd.Context(), args[0], tmp)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return userError(err, models.UserMessage(err, "Download failed"))
		}

		dest := downloadOut
		if dest == "" {
			dest = filepath.Base(name)
		}
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return fmt.Errorf("save download: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dest, n)
		return nil
	},
}

var cmdComments = &cobra.Command{
	Use:   "comments <post-id>",
	Short: "Show a post's comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !current.store.IsAuthenticated() {
			return errNotSignedIn
		}
		thread := feed.NewThread(current.client, args[0], current.logger)
		defer thread.Close()
		if err := thread.Load(cmd.Context()); err != nil {
			return userError(err, thread.Err())
		}
		renderComments(cmd.OutOrStdout(), thread.Comments())
		return nil
	},
}

var cmdComment = &cobra.Command{
	Use:   "comment <post-id> <text>",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !current.store.IsAuthenticated() {
			return errNotSignedIn
		}
		text := strings.Join(args[1:], " ")
		if err := validation.ValidateComment(text); err != nil {
			return userError(err, models.UserMessage(err, ""))
		}
		thread := feed.NewThread(current.client, args[0], current.logger)
		defer thread.Close()
		if err := thread.Add(cmd.Context(), text); err != nil {
			return userError(err, thread.Err())
		}
		renderComments(cmd.OutOrStdout(), thread.Comments())
		return nil
	},
}

func renderComments(w io.Writer, comments []models.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	for _, c := range comments {
		fmt.Fprintf(w, "%s: %s", c.Author(), c.Text)
		if !c.CreatedAt.IsZero() {
			fmt.Fprintf(w, " (%s)", c.CreatedAt.Local().Format("02 Jan 2006, 15:04"))
		}
		fmt.Fprintln(w)
	}
}
