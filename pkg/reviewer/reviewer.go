// Package reviewer provides the high-level API for reviewing PostgreSQL DDL
// against the rule catalog.
//
// # Quick Start
//
//	r := reviewer.New()
//
//	report, err := r.Review(context.Background(), reviewer.Source{
//	    Name: "schema.sql",
//	    SQL:  "CREATE TABLE users (id INT);",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Found %d issues\n", report.Summary.Total)
//	for _, d := range report.Diagnostics {
//	    fmt.Printf("[%s] %s\n", d.Severity, d.Message)
//	}
//
// # Using Custom Overrides
//
//	r := reviewer.New()
//	if err := r.WithConfig("review-rules.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	report, err := r.Review(ctx, sources...)
package reviewer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nsxbet/schema-reviewer/pkg/catalog"
	"github.com/nsxbet/schema-reviewer/pkg/config"
	_ "github.com/nsxbet/schema-reviewer/pkg/rules"
	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

// Source is one named DDL input.
type Source = schema.Source

// Reviewer runs the rule catalog against extracted DDL schemas.
//
// Reviewer is safe for concurrent use by multiple goroutines once
// configured; WithConfig and WithConfigObject are not safe to call
// concurrently with Review.
type Reviewer struct {
	catalog *catalog.Catalog
}

// New creates a Reviewer with the built-in rule catalog. Use WithConfig or
// WithConfigObject to layer overrides on top.
func New() *Reviewer {
	return &Reviewer{catalog: catalog.Default()}
}

// WithConfig loads a YAML or JSON override document from a file and applies
// it. An unreadable or invalid document is an error; the previous catalog is
// kept.
func (r *Reviewer) WithConfig(filename string) error {
	cfg, err := config.LoadFromFile(filename)
	if err != nil {
		return err
	}
	return r.WithConfigObject(cfg)
}

// WithConfigObject applies an already-parsed override document.
func (r *Reviewer) WithConfigObject(cfg *config.Config) error {
	applied, err := catalog.Default().Apply(cfg.Rules...)
	if err != nil {
		return err
	}
	r.catalog = applied
	return nil
}

// Catalog returns the effective rule catalog the next Review will run.
func (r *Reviewer) Catalog() *catalog.Catalog {
	return r.catalog
}

// Review extracts a schema from the sources and runs every enabled rule
// against it. Rule categories run concurrently; the report order does not
// depend on scheduling. Malformed DDL never fails the call, it degrades to
// diagnostics.
func (r *Reviewer) Review(ctx context.Context, sources ...Source) (*Report, error) {
	extracted := schema.Extract(sources...)

	var diags []*types.Diagnostic
	diags = append(diags, r.extractionDiagnostics(extracted)...)

	results := make([][]*types.Diagnostic, len(types.Categories()))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range types.Categories() {
		i, category := i, category
		g.Go(func() error {
			var out []*types.Diagnostic
			for _, rule := range r.catalog.RulesForCategory(category) {
				if err := gctx.Err(); err != nil {
					return err
				}
				if rule.Check == nil {
					continue
				}
				out = append(out, rule.Check(extracted.Schema, rule)...)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, out := range results {
		diags = append(diags, out...)
	}
	return Aggregate(diags), nil
}

// extractionDiagnostics filters the extractor's own notices through the
// effective catalog, so overrides can disable or reseverity the
// unparsed-statement rule like any other.
func (r *Reviewer) extractionDiagnostics(extracted *schema.Result) []*types.Diagnostic {
	var diags []*types.Diagnostic
	for _, d := range extracted.Diagnostics {
		rule, ok := r.catalog.Get(d.RuleID)
		if ok && !rule.Enabled {
			continue
		}
		if ok {
			d.Severity = rule.Severity
		}
		diags = append(diags, d)
	}
	return diags
}
