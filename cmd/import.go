package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"vault-inventory/core/storage"
	"vault-inventory/feature/audit"
	"vault-inventory/feature/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// maxImportFileBytes bounds the size of an import file read from disk or storage.
const maxImportFileBytes = 64 << 20

var (
	importProduct        string
	importFile           string
	importObject         string
	importSkipDuplicates bool
	importActor          string
)

// importCmd bulk-imports items from a JSON file.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import items for a product",
	Long: `Reads a JSON array of items ({"payload": {...}, "supplier": ..., "cost": ...})
from a local file or an object in the configured bucket and imports them in one batch.`,
	RunE: runImport,
}

func init() {
	RootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importProduct, "product", "", "Product id to import into")
	importCmd.Flags().StringVar(&importFile, "file", "", "Local JSON file")
	importCmd.Flags().StringVar(&importObject, "object", "", "Object name in the storage bucket")
	importCmd.Flags().BoolVar(&importSkipDuplicates, "skip-duplicates", false, "Skip items whose content already exists")
	importCmd.Flags().StringVar(&importActor, "actor", "cli", "Actor recorded in the audit log")
	_ = importCmd.MarkFlagRequired("product")
	importCmd.MarkFlagsOneRequired("file", "object")
	importCmd.MarkFlagsMutuallyExclusive("file", "object")
}

func runImport(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := audit.WithActor(cmd.Context(), importActor)

	data, err := readImportSource(ctx, rt)
	if err != nil {
		return err
	}

	var entries []inventory.NewItem
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}

	rt.logger.Info("Importing items",
		zap.String("product_id", importProduct),
		zap.Int("entries", len(entries)),
		zap.Bool("skip_duplicates", importSkipDuplicates),
	)

	result, err := rt.service.BulkImport(ctx, importProduct, entries, inventory.ImportOptions{SkipDuplicates: importSkipDuplicates})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	rt.logger.Info("Import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	for _, e := range result.Errors {
		rt.logger.Warn("Rejected entry", zap.Int("index", e.Index), zap.String("error", e.Message))
	}
	if result.Imported == 0 && result.Failed > 0 {
		return errors.New("no items were imported")
	}
	return nil
}

func readImportSource(ctx context.Context, rt *deps) ([]byte, error) {
	if importFile != "" {
		info, err := os.Stat(importFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open import file: %w", err)
		}
		if info.Size() > maxImportFileBytes {
			return nil, fmt.Errorf("import file %s exceeds %d bytes", importFile, maxImportFileBytes)
		}
		return os.ReadFile(importFile)
	}

	client, err := storage.NewClient(rt.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	return storage.ReadObject(ctx, client, rt.cfg.Storage.Bucket, importObject, maxImportFileBytes)
}
