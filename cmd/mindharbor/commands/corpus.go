package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/Imtguy97/mindharbor-bot/pkg/cli"
	"github.com/Imtguy97/mindharbor-bot/pkg/storage"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Export and import corpus snapshots",
	Long: `Export and import corpus snapshots.

Snapshots are self-contained JSONL files carrying every document with
its embedding, so importing never calls the embedding provider.
Destinations are local paths or s3:// URIs; S3 credentials come from
the standard AWS environment variables, and S3_ENDPOINT points the
client at an S3-compatible service.`,
}

var corpusExportCmd = &cobra.Command{
	Use:   "export <dest>",
	Short: "Write the corpus to a snapshot",
	Long: `Write every corpus document to a snapshot.

Examples:
  mindharbor corpus export backup.jsonl
  mindharbor corpus export s3://harbor-backups/corpus.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusExport,
}

var corpusImportCmd = &cobra.Command{
	Use:   "import <src>",
	Short: "Load a snapshot into the corpus",
	Long: `Load a snapshot into the corpus.

Imported documents merge into the existing corpus; a snapshot record
whose id already exists replaces the stored document.

Examples:
  mindharbor corpus import backup.jsonl
  mindharbor corpus import s3://harbor-backups/corpus.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusImport,
}

func init() {
	corpusCmd.AddCommand(corpusExportCmd)
	corpusCmd.AddCommand(corpusImportCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusExport(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	files, name, err := openSnapshotStore(args[0])
	if err != nil {
		return err
	}

	w, err := files.Write(ctx, name)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: w}
	if err := store.WriteSnapshot(ctx, cw); err != nil {
		storage.Abort(w)
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	cli.PrintSuccess("Exported %d documents (%s) to %s", store.Len(), cli.FormatBytes(cw.n), args[0])
	return nil
}

// countingWriter tracks how many bytes pass through to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func runCorpusImport(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	files, name, err := openSnapshotStore(args[0])
	if err != nil {
		return err
	}

	r, err := files.Read(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()

	n, err := store.ImportSnapshot(ctx, r)
	if err != nil {
		return err
	}

	cli.PrintSuccess("Imported %d documents from %s", n, args[0])
	return nil
}

// openSnapshotStore resolves a snapshot destination to a file store and
// the name within it.
func openSnapshotStore(dest string) (storage.FileStore, string, error) {
	if storage.IsS3URI(dest) {
		bucket, key, err := storage.ParseS3URI(dest)
		if err != nil {
			return nil, "", err
		}
		client, err := newS3Client()
		if err != nil {
			return nil, "", err
		}
		return storage.NewS3(client, bucket, ""), key, nil
	}

	files, err := storage.NewLocal(filepath.Dir(dest))
	if err != nil {
		return nil, "", err
	}
	return files, filepath.Base(dest), nil
}

// newS3Client builds an S3 client from the standard AWS environment
// variables.
func newS3Client() (*s3.Client, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION is required for s3:// destinations")
	}

	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id := os.Getenv("AWS_ACCESS_KEY_ID")
		secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required for s3:// destinations")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		}, nil
	})

	opts := s3.Options{Region: region, Credentials: creds}
	if ep := os.Getenv("S3_ENDPOINT"); ep != "" {
		opts.BaseEndpoint = aws.String(ep)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}
