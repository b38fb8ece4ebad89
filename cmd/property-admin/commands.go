package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/property-admin-console/internal/api"
	"github.com/fairyhunter13/property-admin-console/internal/config"
	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/notify"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/page"
)

// console is one CLI invocation's page and its notice pipeline.
type console struct {
	cfg  config.Config
	page *page.Page
	disp *notify.Dispatcher
	rec  *notify.Recorder
	out  io.Writer
}

type rootFlags struct {
	apiURL  string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	var rf rootFlags
	root := &cobra.Command{
		Use:           "property-admin",
		Short:         "View and edit a property in the property service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rf.apiURL, "api", "", "property service base URL (default from API_BASE_URL)")
	root.PersistentFlags().DurationVar(&rf.timeout, "timeout", 0, "request timeout (default from REQUEST_TIMEOUT_MS)")
	root.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "log requests and notices to stderr")

	root.AddCommand(
		newShowCmd(&rf),
		newEditCmd(&rf),
		newGalleryCmd(&rf),
		newFeaturedCmd(&rf),
	)
	return root
}

// open loads configuration, builds the page and opens property id.
func open(cmd *cobra.Command, rf *rootFlags, id string) (*console, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if !rf.verbose {
		level = "error"
	}
	obs.InitLoggerTo(cmd.ErrOrStderr(), level)
	if rf.apiURL != "" {
		cfg.APIBaseURL = rf.apiURL
	}
	if rf.timeout > 0 {
		cfg.RequestTimeout = rf.timeout
	}

	rec := &notify.Recorder{}
	disp := notify.NewDispatcher(notify.DispatcherConfig{
		Workers:       cfg.NotifyWorkers,
		Buffer:        cfg.NotifyBuffer,
		HighWatermark: cfg.NotifyHighWatermark,
	}, notify.Fanout{notify.LogSink{}, rec}, nil)
	disp.Start(cmd.Context())

	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout, api.WithRateLimit(cfg.APIRateLimit))
	p := page.New(client, page.Options{
		RecentComments: cfg.RecentCommentsLimit,
		CommentStatus:  cfg.CommentStatus,
		Notifier:       disp,
	})
	c := &console{cfg: cfg, page: p, disp: disp, rec: rec, out: cmd.OutOrStdout()}
	ctx := cmd.Context()
	if err := p.Open(ctx, id); err != nil {
		c.close()
		return nil, err
	}
	if err := p.Await(ctx); err != nil && !p.Property().Resolved() {
		c.close()
		return nil, fmt.Errorf("load property %s: %w", id, err)
	}
	return c, nil
}

// close flushes pending notices to the output and stops the pipeline.
func (c *console) close() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
	defer cancel()
	c.disp.CloseIntake()
	if !c.disp.DrainUntil(ctx) {
		obs.Logger.Warn("notice_drain_timeout", "pending", c.disp.Pending())
	}
	for _, n := range c.rec.Notices() {
		fmt.Fprintf(c.out, "[%s] %s\n", n.Title, n.Description)
	}
	c.disp.Stop()
	c.page.Close()
}

func newShowCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <property-id>",
		Short: "Show a property with its images and recent comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd, rf, args[0])
			if err != nil {
				return err
			}
			defer c.close()
			return c.page.Render(c.out)
		},
	}
}

type editFlags struct {
	set           []string
	features      []string
	removeFeature []int
	clearFeatures bool
}

func newEditCmd(rf *rootFlags) *cobra.Command {
	var ef editFlags
	cmd := &cobra.Command{
		Use:   "edit <property-id>",
		Short: "Edit property fields and save them",
		Example: `  property-admin edit P1 --set name="Seaside Villa" --set price=2600000
  property-admin edit P1 --feature Sauna --remove-feature 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd, rf, args[0])
			if err != nil {
				return err
			}
			defer c.close()
			return c.edit(cmd.Context(), ef)
		},
	}
	cmd.Flags().StringArrayVar(&ef.set, "set", nil, "field=value to stage (repeatable)")
	cmd.Flags().StringArrayVar(&ef.features, "feature", nil, "feature to add (repeatable)")
	cmd.Flags().IntSliceVar(&ef.removeFeature, "remove-feature", nil, "feature index to remove")
	cmd.Flags().BoolVar(&ef.clearFeatures, "clear-features", false, "remove every feature before adding")
	return cmd
}

func (c *console) edit(ctx context.Context, ef editFlags) error {
	c.page.BeginEdit()
	for _, kv := range ef.set {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			c.page.CancelEdit()
			return fmt.Errorf("--set %q: expected field=value", kv)
		}
		c.page.SetField(name, value)
	}
	if ef.clearFeatures {
		for c.page.RemoveFeature(0) {
		}
	}
	// Highest index first so earlier removals keep later indices valid.
	rm := slices.Clone(ef.removeFeature)
	slices.Sort(rm)
	for i := len(rm) - 1; i >= 0; i-- {
		if !c.page.RemoveFeature(rm[i]) {
			c.page.CancelEdit()
			return fmt.Errorf("--remove-feature %d: no such feature", rm[i])
		}
	}
	for _, f := range ef.features {
		items := c.page.Session().Buffer().List("features")
		c.page.AddFeature()
		c.page.SetFeature(len(items), f)
	}
	if err := c.page.Save(ctx); err != nil {
		return err
	}
	if err := c.page.Await(ctx); err != nil {
		return err
	}
	return c.page.Render(c.out)
}

func newGalleryCmd(rf *rootFlags) *cobra.Command {
	gallery := &cobra.Command{
		Use:   "gallery",
		Short: "Manage a property's gallery",
	}

	var category string
	upload := &cobra.Command{
		Use:   "upload <property-id> <file>...",
		Short: "Upload images to the gallery",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readUploads(args[1:])
			if err != nil {
				return err
			}
			c, err := open(cmd, rf, args[0])
			if err != nil {
				return err
			}
			defer c.close()
			added, err := c.page.UploadGalleryImages(cmd.Context(), category, files)
			if err != nil {
				return err
			}
			for _, img := range added {
				fmt.Fprintf(c.out, "%s\t%s\n", img.ID, img.URL)
			}
			return c.page.Await(cmd.Context())
		},
	}
	upload.Flags().StringVar(&category, "category", "", "gallery category")

	del := &cobra.Command{
		Use:   "delete <property-id> <image-id>",
		Short: "Delete a gallery image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd, rf, args[0])
			if err != nil {
				return err
			}
			defer c.close()
			if err := c.page.DeleteGalleryImage(cmd.Context(), args[1]); err != nil {
				return err
			}
			return c.page.Await(cmd.Context())
		},
	}

	var caption, newCategory string
	var position int
	update := &cobra.Command{
		Use:   "update <property-id> <image-id>",
		Short: "Change caption, category or position of a gallery image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.GalleryImagePatch
			if cmd.Flags().Changed("caption") {
				patch.Caption = &caption
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &newCategory
			}
			if cmd.Flags().Changed("position") {
				patch.Position = &position
			}
			c, err := open(cmd, rf, args[0])
			if err != nil {
				return err
			}
			defer c.close()
			img, err := c.page.UpdateGalleryImage(cmd.Context(), args[1], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s\t%s\t%s\t%d\n", img.ID, img.Caption, img.Category, img.Position)
			return c.page.Await(cmd.Context())
		},
	}
	update.Flags().StringVar(&caption, "caption", "", "new caption")
	update.Flags().StringVar(&newCategory, "category", "", "new category")
	update.Flags().IntVar(&position, "position", 0, "new position")

	gallery.AddCommand(upload, del, update)
	return gallery
}

func newFeaturedCmd(rf *rootFlags) *cobra.Command {
	featured := &cobra.Command{
		Use:   "featured",
		Short: "Manage a property's featured images",
	}
	featured.AddCommand(&cobra.Command{
		Use:   "upload <property-id> <file>...",
		Short: "Append images to the property's featured images",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readUploads(args[1:])
			if err != nil {
				return err
			}
			c, err := open(cmd, rf, args[0])
			if err != nil {
				return err
			}
			defer c.close()
			prop, err := c.page.UploadFeaturedImages(cmd.Context(), files)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, strconv.Itoa(len(prop.Images))+" featured images")
			return c.page.Await(cmd.Context())
		},
	})
	return featured
}

func readUploads(paths []string) ([]model.Upload, error) {
	files := make([]model.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, model.Upload{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Data:        data,
		})
	}
	return files, nil
}
