package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/gallerykit/upload"
	"github.com/kdsmith18542/gallerykit/upload/storage"
)

// StorageCmd manages the configured storage backend directly.
func StorageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage the gallery storage backend",
		Long: `Inspect and modify the storage backend uploads are written to. The backend
is selected by the storage section of the config file, GALLERYKIT_STORAGE_*
environment variables or the flags below.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.bindFlags(cmd.Flags(), map[string]string{
				"storage.backend":  "storage",
				"storage.dir":      "dir",
				"storage.bucket":   "bucket",
				"storage.region":   "region",
				"storage.endpoint": "storage-endpoint",
			})
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("storage", "local", "Storage backend: local, memory, s3, gcs or azure")
	pf.String("dir", "./uploads", "Directory for the local backend")
	pf.String("bucket", "", "Bucket or container name")
	pf.String("region", "", "Region (S3)")
	pf.String("storage-endpoint", "", "Custom endpoint for S3-compatible services")

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the backend is reachable with the configured credentials",
		Args:  cobra.NoArgs,
		RunE: withStorage(a, func(cmd *cobra.Command, args []string, store storage.Storage) error {
			if _, err := store.Exists(cmd.Context(), ".gallerykit-check"); err != nil {
				return fmt.Errorf("failed to access storage: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "storage reachable")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [prefix]",
		Short: "List stored objects",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStorage(a, func(cmd *cobra.Command, args []string, store storage.Storage) error {
			lister, ok := store.(storage.Lister)
			if !ok {
				return errors.New("backend cannot list objects")
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			keys, err := lister.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files found.")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, store.URL(key))
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "put [file...]",
		Short: "Validate and store files the way the upload endpoint does",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStorage(a, func(cmd *cobra.Command, args []string, store storage.Storage) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			processor := upload.NewProcessor(store, s.UploadOptions())
			for _, path := range args {
				result, err := putFile(cmd.Context(), processor, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", result.Path, result.URL, result.Checksum)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(a, func(cmd *cobra.Command, args []string, store storage.Storage) error {
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	})

	var expiration time.Duration
	sign := &cobra.Command{
		Use:   "sign [filename]",
		Short: "Generate a presigned upload URL",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(a, func(cmd *cobra.Command, args []string, store storage.Storage) error {
			processor := upload.NewProcessor(store, upload.Options{})
			result, err := processor.Presign(cmd.Context(), upload.PresignOptions{
				Filename:   args[0],
				Expiration: expiration,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key: %s\nupload: %s\nurl: %s\nexpires: %s\n",
				result.Key, result.UploadURL, result.URL, result.ExpiresAt.Format(time.RFC3339))
			return nil
		}),
	}
	sign.Flags().DurationVar(&expiration, "expiration", time.Hour, "Validity of the URL")
	cmd.AddCommand(sign)

	return cmd
}

// withStorage opens the configured backend around run.
func withStorage(a *app, run func(cmd *cobra.Command, args []string, store storage.Storage) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.settings()
		if err != nil {
			return err
		}
		store, err := storage.Open(cmd.Context(), s.StorageConfig())
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()
		return run(cmd, args, store)
	}
}

func putFile(ctx context.Context, processor *upload.Processor, path string) (upload.Result, error) {
	file, err := upload.NewFileFromPath(path)
	if err != nil {
		return upload.Result{}, err
	}
	rc, err := file.Open()
	if err != nil {
		return upload.Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer rc.Close()
	return processor.ProcessFile(ctx, file.Name(), file.ContentType(), file.Size(), rc)
}
