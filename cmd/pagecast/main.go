// Package main provides the pagecast CLI for inspecting project content,
// searching it, and checking revision state from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pagecast/pagecast-go/internal/inference"
	"github.com/pagecast/pagecast-go/internal/logging"
	"github.com/pagecast/pagecast-go/internal/sdk"
	"github.com/pagecast/pagecast-go/internal/search"
)

var (
	flagProject  string
	flagBaseURL  string
	flagMediaURL string
	flagRevision string
	flagJSON     bool
	flagLimit    int
	flagMode     string
	flagMinScore float64
	flagLogLevel string
)

func main() {
	// Load .env file if present (local development), ignore if missing
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	rootCmd := &cobra.Command{
		Use:   "pagecast",
		Short: "Inspect and search Pagecast project content",
		Long: `pagecast fetches posts and media from a Pagecast project, resolves the
active revision, and runs lexical or vector search against the content.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagProject, "project", os.Getenv("PAGECAST_PROJECT"), "project identifier (or PAGECAST_PROJECT)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", os.Getenv("PAGECAST_BASE_URL"), "content CDN base URL")
	rootCmd.PersistentFlags().StringVar(&flagMediaURL, "media-url", os.Getenv("PAGECAST_MEDIA_URL"), "media host base URL")
	rootCmd.PersistentFlags().StringVar(&flagRevision, "revision", os.Getenv("PAGECAST_REVISION"), "pin to a fixed revision instead of resolving the active one")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", getEnv("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newPostsCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newAutocompleteCmd())
	rootCmd.AddCommand(newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newPostsCmd() *cobra.Command {
	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "List and fetch posts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all posts in the active revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDK()
			if err != nil {
				return err
			}
			posts, err := client.Posts().GetAllPosts(cmd.Context(), true, false)
			if err != nil {
				return fmt.Errorf("failed to list posts: %w", err)
			}
			if flagJSON {
				return printJSON(posts)
			}
			for _, p := range posts {
				fmt.Printf("%s  %-30s  %s\n", p.Hash, p.Slug, p.Title)
			}
			fmt.Printf("\n%d posts (revision %s)\n", len(posts), client.ActiveRev())
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <slug>",
		Short: "Fetch one post by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDK()
			if err != nil {
				return err
			}
			post, err := client.Posts().GetPostBySlug(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get post %q: %w", args[0], err)
			}
			if flagJSON {
				return printJSON(post)
			}
			fmt.Printf("# %s\n\n%s\n", post.Title, post.Content)
			return nil
		},
	}

	postsCmd.AddCommand(listCmd, getCmd)
	return postsCmd
}

func newSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search posts (lexical by default, vector modes with --mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := search.ParseMode(flagMode)
			if err != nil {
				return err
			}
			client, err := newSDK()
			if err != nil {
				return err
			}
			hits, err := client.Search().SearchPosts(cmd.Context(), search.Query{
				Text:     args[0],
				Mode:     mode,
				Limit:    flagLimit,
				MinScore: flagMinScore,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if flagJSON {
				return printJSON(hits)
			}
			if len(hits) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for i, hit := range hits {
				switch {
				case hit.Post != nil:
					fmt.Printf("%2d. [%.3f] %s (%s)\n", i+1, hit.Score, hit.Post.Title, hit.Post.Slug)
				case hit.Media != nil:
					fmt.Printf("%2d. [%.3f] %s\n", i+1, hit.Score, hit.Media.Path)
				}
			}
			return nil
		},
	}

	searchCmd.Flags().StringVar(&flagMode, "mode", "memory", "search mode: memory, vector-text, vector-clip-text")
	searchCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum results (0 = engine default)")
	searchCmd.Flags().Float64Var(&flagMinScore, "min-score", 0, "minimum vector similarity (0 = engine default)")
	return searchCmd
}

func newAutocompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocomplete <prefix>",
		Short: "Suggest completions for a partial search term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDK()
			if err != nil {
				return err
			}
			suggestions, err := client.Search().Autocomplete(cmd.Context(), args[0], flagLimit)
			if err != nil {
				return fmt.Errorf("autocomplete failed: %w", err)
			}
			if flagJSON {
				return printJSON(suggestions)
			}
			for _, s := range suggestions {
				fmt.Println(s)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum suggestions (0 = engine default)")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active revision and content counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDK()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rev, err := client.ResolveRev(ctx)
			if err != nil {
				return fmt.Errorf("failed to resolve revision: %w", err)
			}
			posts, err := client.Posts().GetAllPosts(ctx, true, false)
			if err != nil {
				return fmt.Errorf("failed to fetch posts: %w", err)
			}
			media, err := client.Posts().GetAllMedia(ctx, true, false)
			if err != nil {
				return fmt.Errorf("failed to fetch media: %w", err)
			}

			if flagJSON {
				return printJSON(map[string]any{
					"project":  flagProject,
					"revision": rev,
					"posts":    len(posts),
					"media":    len(media),
				})
			}
			fmt.Printf("Project:  %s\n", flagProject)
			fmt.Printf("Revision: %s\n", rev)
			fmt.Printf("Posts:    %d\n", len(posts))
			fmt.Printf("Media:    %d\n", len(media))
			return nil
		},
	}
}

func newSDK() (*sdk.SDK, error) {
	if flagProject == "" {
		return nil, fmt.Errorf("project is required (--project or PAGECAST_PROJECT)")
	}
	logger := logging.Install(logging.Config{Level: flagLogLevel, Format: "console"})
	return sdk.New(sdk.Options{
		Project:      flagProject,
		BaseURL:      flagBaseURL,
		MediaBaseURL: flagMediaURL,
		Revision:     flagRevision,
		Inferencer:   buildInferencer(),
		Logger:       logger,
	})
}

// buildInferencer mirrors the server wiring: OpenAI for text embeddings when
// the key is set, an HTTP inference service for the CLIP spaces when
// configured. Vector modes error cleanly without either.
func buildInferencer() inference.Inferencer {
	var clip inference.Inferencer
	if url := os.Getenv("PAGECAST_INFERENCE_URL"); url != "" {
		clip = inference.NewHTTPInferencer(url, os.Getenv("PAGECAST_INFERENCE_TOKEN"))
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return inference.NewOpenAIInferencer("", clip)
	}
	return clip
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
