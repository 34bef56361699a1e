// Package main provides the Yggdrasil CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/yggdrasil/pkg/config"
	"github.com/orneryd/yggdrasil/pkg/graph"
	"github.com/orneryd/yggdrasil/pkg/schema"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yggdrasil",
		Short: "Yggdrasil - In-Memory Typed Property-Graph Engine",
		Long: `Yggdrasil is an in-memory, typed property-graph engine written in Go,
with an algebraic query language interpreted directly against the store.

Features:
  • Labeled property-graph model with typed, directed edges
  • Label, edge-type, adjacency, and property indices
  • Row-based query pipeline: match, traversal, hierarchy, reachability,
    filtering, ordering, aggregation, and fork fan-out
  • Snapshot transactions with full index rebuild on rollback
  • Lossless graph export/import`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Yggdrasil v%s (%s)\n", version, commit)
		},
	})

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for a graph export",
		RunE:  runStats,
	}
	statsCmd.Flags().String("graph", "", "Graph export file (JSON); defaults to YGGDRASIL_GRAPH_FILE")
	rootCmd.AddCommand(statsCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a graph export against a schema",
		RunE:  runValidate,
	}
	validateCmd.Flags().String("graph", "", "Graph export file (JSON)")
	validateCmd.Flags().String("schema", "", "Schema file (YAML); defaults to YGGDRASIL_SCHEMA_FILE")
	rootCmd.AddCommand(validateCmd)

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Import a graph export and re-export it (round-trip check)",
		RunE:  runConvert,
	}
	convertCmd.Flags().String("graph", "", "Graph export file (JSON)")
	convertCmd.Flags().String("out", "", "Output file (defaults to stdout)")
	rootCmd.AddCommand(convertCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadGraph reads an exported graph into a fresh store.
func loadGraph(path string) (*graph.Store, *graph.ExportedGraph, error) {
	if path == "" {
		path = config.LoadFromEnv().Paths.GraphFile
	}
	if path == "" {
		return nil, nil, fmt.Errorf("no graph file given (use --graph or YGGDRASIL_GRAPH_FILE)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	exported := &graph.ExportedGraph{}
	if err := json.Unmarshal(data, exported); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	store := graph.NewStore()
	if err := store.Import(exported); err != nil {
		return nil, nil, fmt.Errorf("import %s: %w", path, err)
	}
	return store, exported, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("graph")
	store, _, err := loadGraph(path)
	if err != nil {
		return err
	}
	defer store.Close()

	stats := store.Stats()
	fmt.Printf("Nodes: %d\n", stats.Nodes)
	fmt.Printf("Edges: %d\n", stats.Edges)
	fmt.Println("Labels:")
	for label, count := range stats.Labels {
		fmt.Printf("  %-20s %d\n", label, count)
	}
	fmt.Println("Edge types:")
	for edgeType, count := range stats.EdgeTypes {
		fmt.Printf("  %-20s %d\n", edgeType, count)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	graphPath, _ := cmd.Flags().GetString("graph")
	schemaPath, _ := cmd.Flags().GetString("schema")
	if schemaPath == "" {
		schemaPath = config.LoadFromEnv().Paths.SchemaFile
	}
	if schemaPath == "" {
		return fmt.Errorf("no schema file given (use --schema or YGGDRASIL_SCHEMA_FILE)")
	}

	s, err := schema.LoadFile(schemaPath)
	if err != nil {
		return err
	}
	store, exported, err := loadGraph(graphPath)
	if err != nil {
		return err
	}
	defer store.Close()

	labels := make(map[graph.NodeID]string, len(exported.Nodes))
	failures := 0
	for _, node := range exported.Nodes {
		labels[node.ID] = node.Label
		if err := s.ValidateNode(node.Label, node.Properties); err != nil {
			failures++
			fmt.Printf("node %s: %v\n", node.ID, err)
		}
	}
	for _, edge := range exported.Edges {
		if err := s.ValidateEdge(edge.Type, labels[edge.From], labels[edge.To], edge.Properties); err != nil {
			failures++
			fmt.Printf("edge %s: %v\n", edge.ID, err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d validation failure(s)", failures)
	}
	fmt.Printf("OK: %d nodes, %d edges\n", len(exported.Nodes), len(exported.Edges))
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	graphPath, _ := cmd.Flags().GetString("graph")
	outPath, _ := cmd.Flags().GetString("out")

	store, _, err := loadGraph(graphPath)
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := json.MarshalIndent(store.Export(), "", "  ")
	if err != nil {
		return err
	}
	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(outPath, append(data, '\n'), 0o644)
}
