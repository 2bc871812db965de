package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdulachik/robodialog/internal/config"
	"github.com/spf13/cobra"
)

var downloadForce bool

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the Cornell movie-dialogs corpus",
	Long: `Download the ConvoKit movie-corpus archive and unpack it into the
corpus directory (CORPUS_DIR, default data/movie-corpus).

The corpus is skipped when already present; use --force to refetch.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolVarP(&downloadForce, "force", "f", false, "Re-download even if the corpus exists")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDownload(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	marker := filepath.Join(cfg.CorpusDir, "utterances.jsonl")
	if !downloadForce {
		if _, err := os.Stat(marker); err == nil {
			fmt.Printf("Corpus already present at %s (use --force to refetch)\n", cfg.CorpusDir)
			return nil
		}
	}

	if err := os.MkdirAll(cfg.CorpusDir, 0755); err != nil {
		return fmt.Errorf("create corpus directory: %w", err)
	}

	client := &http.Client{
		Timeout: 10 * time.Minute,
	}

	fmt.Printf("Downloading corpus from %s...\n", cfg.CorpusURL)

	archive, err := downloadArchive(cmd.Context(), client, cfg.CorpusURL)
	if err != nil {
		return fmt.Errorf("download corpus: %w", err)
	}
	defer os.Remove(archive)

	fmt.Println("Unpacking...")
	if err := unpackCorpus(archive, cfg.CorpusDir); err != nil {
		return fmt.Errorf("unpack corpus: %w", err)
	}

	fmt.Printf("Corpus saved to: %s/\n", cfg.CorpusDir)
	return nil
}

// downloadArchive fetches url into a temporary file and returns its path.
func downloadArchive(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "movie-corpus-*.zip")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// unpackCorpus extracts the zip archive into destDir, stripping the
// archive's top-level movie-corpus directory so the JSON files land
// directly in destDir.
func unpackCorpus(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		name := filepath.ToSlash(entry.Name)
		name = strings.TrimPrefix(name, "movie-corpus/")
		if name == "" || entry.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			slog.Warn("skipping suspicious archive entry", "entry", entry.Name)
			continue
		}

		dest := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", name, err)
		}

		if err := extractFile(entry, dest); err != nil {
			return fmt.Errorf("extract %s: %w", name, err)
		}
		slog.Debug("extracted corpus file", "file", name)
	}
	return nil
}

func extractFile(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
