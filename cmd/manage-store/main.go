// manage-store administers Gemini File Search stores and their documents.
//
// Usage:
//
//	manage-store list-stores
//	manage-store create --name "my-store"
//	manage-store list-docs --store <name>
//	manage-store delete-doc --store <name> --doc <doc_name>
//	manage-store delete-store --store <name>
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"emailwriter/internal/config"
	"emailwriter/internal/gemini"

	"github.com/spf13/cobra"
)

// storeManager is the subset of gemini.FileSearchManager used by the commands
type storeManager interface {
	CreateStore(ctx context.Context, displayName string) (string, error)
	ListStores(ctx context.Context) ([]gemini.FileSearchStore, error)
	ListDocuments(ctx context.Context, storeName string) ([]gemini.Document, error)
	DeleteDocument(ctx context.Context, storeName, documentName string) error
	DeleteStore(ctx context.Context, storeName string) error
}

type managerFactory func(trace bool) (storeManager, error)

func newManager(trace bool) (storeManager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if trace {
		cfg.TraceHTTP = true
	}
	return gemini.NewFileSearchManager(cfg, cfg.SetupLogger()), nil
}

func main() {
	if err := rootCmd(newManager).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(factory managerFactory) *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:           "manage-store",
		Short:         "Manage Gemini File Search stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&trace, "trace", false, "Dump Gemini API HTTP traffic to stderr")

	manager := func() (storeManager, error) {
		return factory(trace)
	}

	cmd.AddCommand(
		listStoresCmd(manager),
		createCmd(manager),
		listDocsCmd(manager),
		deleteDocCmd(manager),
		deleteStoreCmd(manager),
	)
	return cmd
}

func listStoresCmd(manager func() (storeManager, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list-stores",
		Short: "List File Search stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}

			stores, err := m.ListStores(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, store := range stores {
				fmt.Fprintf(out, "  %s (%s)\n", store.Name, store.DisplayName)
			}
			return nil
		},
	}
}

func createCmd(manager func() (storeManager, error)) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}

			storeName, err := m.CreateStore(cmd.Context(), name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store created: %s\n", storeName)
			printEnvHint(out, storeName)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Store display name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func listDocsCmd(manager func() (storeManager, error)) *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "list-docs",
		Short: "List documents in a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}

			docs, err := m.ListDocuments(cmd.Context(), store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, doc := range docs {
				fmt.Fprintf(out, "  %s\n", doc.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "Store resource name")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func deleteDocCmd(manager func() (storeManager, error)) *cobra.Command {
	var store, doc string

	cmd := &cobra.Command{
		Use:   "delete-doc",
		Short: "Delete a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}

			if err := m.DeleteDocument(cmd.Context(), store, doc); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Document deleted: %s\n", doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "Store resource name")
	cmd.Flags().StringVar(&doc, "doc", "", "Document name to delete")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func deleteStoreCmd(manager func() (storeManager, error)) *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "delete-store",
		Short: "Delete a store and its documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}

			if err := m.DeleteStore(cmd.Context(), store); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Store deleted: %s\n", store)
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "Store resource name to delete")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func printEnvHint(out io.Writer, storeName string) {
	fmt.Fprintf(out, "Add to .env: %sFILE_SEARCH_STORE_NAME=%s\n", config.EnvPrefix, storeName)
}
