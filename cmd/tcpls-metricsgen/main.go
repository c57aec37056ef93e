// Command tcpls-metricsgen scans pkg/diag.Info's `tcpi` struct tags and
// generates the prometheus descriptor boilerplate for each tagged
// field, the same way the teacher's prom-metrics-gen scans
// pkg/linux.TCPInfo. Unlike the teacher's TCPInfo (which uses dedicated
// NullableUint64-style wrapper types), diag.Info marks
// kernel-version-gated fields as plain Go pointers, so nullability here
// is detected from the field's AST shape (*ast.StarExpr) rather than an
// identifier name prefix.
package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"reflect"
	"strings"
	"text/template"
)

const outputPath = "pkg/exporter/generated_metrics.go"

// Metric is one field's worth of template data.
type Metric struct {
	Name       string
	FieldName  string
	Help       string
	Type       string
	IsNullable bool
	IsDuration bool
}

func main() {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, "pkg/diag/diag.go", nil, parser.ParseComments)
	if err != nil {
		log.Fatal(err)
	}

	var metrics []Metric
	ast.Inspect(node, func(n ast.Node) bool {
		s, ok := n.(*ast.StructType)
		if !ok {
			return true
		}

		for _, f := range s.Fields.List {
			if f.Tag == nil {
				continue
			}
			tag := reflect.StructTag(strings.Trim(f.Tag.Value, "`"))
			tcpiTag, ok := tag.Lookup("tcpi")
			if !ok {
				continue
			}

			var metric Metric
			metric.FieldName = f.Names[0].Name
			tagString := tcpiTag
			for tagString != "" {
				i := strings.Index(tagString, "=")
				if i == -1 {
					log.Printf("malformed tag (missing =): %s [%s]", tagString, metric.FieldName)
					break
				}
				key := tagString[:i]
				tagString = tagString[i+1:]

				var value string
				if strings.HasPrefix(tagString, "'") {
					tagString = tagString[1:]
					j := strings.Index(tagString, "'")
					if j == -1 {
						log.Printf("malformed tag (missing '): %s [%s]", tagString, metric.FieldName)
						break
					}
					value = tagString[:j]
					tagString = tagString[j+1:]
					if strings.HasPrefix(tagString, ",") {
						tagString = tagString[1:]
					}
				} else {
					j := strings.Index(tagString, ",")
					if j == -1 {
						value = tagString
						tagString = ""
					} else {
						value = tagString[:j]
						tagString = tagString[j+1:]
					}
				}

				switch key {
				case "name":
					metric.Name = value
				case "prom_type":
					switch value {
					case "gauge":
						metric.Type = "Gauge"
					case "counter":
						metric.Type = "Counter"
					}
				case "prom_help":
					metric.Help = value
				}
			}

			_, metric.IsNullable = f.Type.(*ast.StarExpr)
			if sel, ok := f.Type.(*ast.SelectorExpr); ok {
				if ident, ok := sel.X.(*ast.Ident); ok {
					metric.IsDuration = ident.Name == "time" && sel.Sel.Name == "Duration"
				}
			}
			metrics = append(metrics, metric)
		}
		return false
	})

	t, err := template.ParseFiles("cmd/tcpls-metricsgen/template.tmpl")
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Metrics []Metric }{Metrics: metrics}); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Generated %s\n", outputPath)
}
