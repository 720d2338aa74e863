package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/graph"
	"github.com/ziadkadry99/partschat/internal/parts"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load parts and relations into the database",
	Long: `Inserts parts and their relations from a YAML fixture file, or a
built-in sample set when no file is given. Useful for demos and local
development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fixture := seedFixture{Parts: samplePartList, Relations: sampleEdgeList}
		if seedFile != "" {
			data, err := os.ReadFile(seedFile)
			if err != nil {
				return fmt.Errorf("reading fixture %s: %w", seedFile, err)
			}
			fixture = seedFixture{}
			if err := yaml.Unmarshal(data, &fixture); err != nil {
				return fmt.Errorf("parsing fixture %s: %w", seedFile, err)
			}
		}

		database, err := db.Open(dbPathFor(cfg))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		ctx := context.Background()
		partStore := parts.NewStore(database)
		graphStore := graph.NewStore(database)

		for _, p := range fixture.Parts {
			if err := partStore.Upsert(ctx, p); err != nil {
				return fmt.Errorf("seeding part %s: %w", p.PartID, err)
			}
		}
		for _, e := range fixture.Relations {
			if err := graphStore.AddEdge(ctx, e); err != nil {
				return fmt.Errorf("seeding relation %s -> %s: %w", e.PartID, e.TargetID, err)
			}
		}

		fmt.Printf("Seeded %d parts and %d relations\n", len(fixture.Parts), len(fixture.Relations))
		return nil
	},
}

// seedFixture is the YAML shape of a seed file.
type seedFixture struct {
	Parts     []parts.Part `yaml:"parts"`
	Relations []graph.Edge `yaml:"relations"`
}

var samplePartList = []parts.Part{
	{
		PartID: "ABC-12345", Name: "진공 펌프 베어링", Category: "베어링",
		Spec:         map[string]string{"내경": "25mm", "재질": "세라믹"},
		CurrentStock: 850, MinimumStock: 100, UnitPrice: 45000,
		Supplier: "한국정밀", Location: "A-03-12",
	},
	{
		PartID: "XYZ-99101", Name: "오링 씰", Category: "씰",
		Spec:         map[string]string{"내경": "30mm", "재질": "불소고무"},
		CurrentStock: 15, MinimumStock: 50, UnitPrice: 3200,
		Supplier: "한국씰테크", Location: "B-01-05",
	},
	{
		PartID: "DEF-20488", Name: "RF 매칭 커패시터", Category: "전장부품",
		Spec:         map[string]string{"정전용량": "500pF", "내압": "5kV"},
		CurrentStock: 120, MinimumStock: 30, UnitPrice: 380000,
		Supplier: "세미콤", Location: "C-07-02",
	},
	{
		PartID: "GHJ-55210", Name: "히터 블록", Category: "열처리",
		Spec:         map[string]string{"최대온도": "450C", "전압": "220V"},
		CurrentStock: 8, MinimumStock: 5, UnitPrice: 1250000,
		Supplier: "한국정밀", Location: "D-02-09",
	},
}

var sampleEdgeList = []graph.Edge{
	{PartID: "ABC-12345", Relation: graph.RelSuppliedBy, TargetKind: "supplier", TargetID: "sup-hankook", TargetName: "한국정밀", Detail: "리드타임 2주"},
	{PartID: "ABC-12345", Relation: graph.RelUsedIn, TargetKind: "equipment", TargetID: "eq-etch-01", TargetName: "식각 장비 1호기"},
	{PartID: "ABC-12345", Relation: graph.RelSimilarTo, TargetKind: "part", TargetID: "ABC-12346", TargetName: "진공 펌프 베어링 (스틸)"},
	{PartID: "XYZ-99101", Relation: graph.RelSuppliedBy, TargetKind: "supplier", TargetID: "sup-sealtech", TargetName: "한국씰테크", Detail: "리드타임 1주"},
	{PartID: "XYZ-99101", Relation: graph.RelUsedIn, TargetKind: "equipment", TargetID: "eq-cvd-02", TargetName: "증착 장비 2호기"},
	{PartID: "XYZ-99101", Relation: graph.RelDocumentedIn, TargetKind: "document", TargetID: "seal-manual.md", TargetName: "씰 교체 매뉴얼"},
	{PartID: "DEF-20488", Relation: graph.RelUsedIn, TargetKind: "equipment", TargetID: "eq-etch-01", TargetName: "식각 장비 1호기"},
	{PartID: "GHJ-55210", Relation: graph.RelUsedIn, TargetKind: "equipment", TargetID: "eq-diff-03", TargetName: "확산로 3호기"},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML fixture with parts and relations")
	rootCmd.AddCommand(seedCmd)
}
