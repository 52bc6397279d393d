package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "github.com/yairfalse/idcvault/"

type Level int

const (
	LevelCmd Level = iota + 1
	LevelPresentation
	LevelIntegration
	LevelErrors
	LevelCore
	LevelFoundation
	LevelPkg
)

// packageLevels maps path prefixes to levels. A package may import only
// packages at its own level or a higher-numbered one.
var packageLevels = map[string]Level{
	"cmd":                 LevelCmd,
	"tools":               LevelCmd,
	"internal/output":     LevelPresentation,
	"internal/collectors": LevelIntegration,
	"internal/storage":    LevelIntegration,
	"internal/errors":     LevelErrors,
	"internal/differ":     LevelCore,
	"internal/logger":     LevelFoundation,
	"internal/cache":      LevelFoundation,
	"pkg":                 LevelPkg,
}

type Violation struct {
	FromFile    string
	FromPackage string
	FromLevel   Level
	ToPackage   string
	ToLevel     Level
}

// getPackageLevel returns the level of the longest matching prefix
func getPackageLevel(pkgPath string) Level {
	var best string
	for prefix := range packageLevels {
		if (pkgPath == prefix || strings.HasPrefix(pkgPath, prefix+"/")) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return packageLevels[best]
}

func getPackageFromPath(root, filePath string) string {
	rel, err := filepath.Rel(root, filepath.Dir(filePath))
	if err != nil {
		return filepath.ToSlash(filepath.Dir(filePath))
	}
	return filepath.ToSlash(rel)
}

func checkFile(root, filePath string) ([]Violation, error) {
	var violations []Violation

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, content, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	fromPackage := getPackageFromPath(root, filePath)
	fromLevel := getPackageLevel(fromPackage)
	if fromLevel == 0 {
		return violations, nil
	}

	for _, imp := range node.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)

		// Only imports from this module are levelled
		if !strings.HasPrefix(importPath, modulePath) {
			continue
		}
		importPath = strings.TrimPrefix(importPath, modulePath)

		toLevel := getPackageLevel(importPath)
		if toLevel == 0 {
			continue
		}

		if toLevel < fromLevel {
			violations = append(violations, Violation{
				FromFile:    filePath,
				FromPackage: fromPackage,
				FromLevel:   fromLevel,
				ToPackage:   importPath,
				ToLevel:     toLevel,
			})
		}
	}

	return violations, nil
}

func walkGoFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func levelName(l Level) string {
	switch l {
	case LevelCmd:
		return "CMD (Level 1)"
	case LevelPresentation:
		return "PRESENTATION (Level 2)"
	case LevelIntegration:
		return "INTEGRATION (Level 3)"
	case LevelErrors:
		return "ERRORS (Level 4)"
	case LevelCore:
		return "CORE (Level 5)"
	case LevelFoundation:
		return "FOUNDATION (Level 6)"
	case LevelPkg:
		return "PKG (Level 7)"
	default:
		return "UNKNOWN"
	}
}

// check walks root and reports violations to w. It returns the violation count.
func check(root string, w io.Writer) (int, error) {
	files, err := walkGoFiles(root)
	if err != nil {
		return 0, fmt.Errorf("walking files: %w", err)
	}

	var allViolations []Violation
	checkedFiles := 0

	for _, file := range files {
		violations, err := checkFile(root, file)
		if err != nil {
			fmt.Fprintf(w, "Error checking %s: %v\n", file, err)
			continue
		}
		allViolations = append(allViolations, violations...)
		checkedFiles++
	}

	fmt.Fprintf(w, "Checked %d Go files\n", checkedFiles)

	if len(allViolations) == 0 {
		fmt.Fprintln(w, "No architectural level violations found")
		return 0, nil
	}

	fmt.Fprintf(w, "Found %d architectural level violations:\n", len(allViolations))

	// Group violations by type
	violationMap := make(map[string][]Violation)
	for _, v := range allViolations {
		key := fmt.Sprintf("%s -> %s", levelName(v.FromLevel), levelName(v.ToLevel))
		violationMap[key] = append(violationMap[key], v)
	}

	keys := make([]string, 0, len(violationMap))
	for k := range violationMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, violationType := range keys {
		violations := violationMap[violationType]
		fmt.Fprintf(w, "\n%s (%d violations):\n", violationType, len(violations))
		for i, v := range violations {
			if i >= 5 {
				fmt.Fprintf(w, "   ... and %d more\n", len(violations)-5)
				break
			}
			fmt.Fprintf(w, "   %s imports %s\n", v.FromPackage, v.ToPackage)
		}
	}

	return len(allViolations), nil
}

func main() {
	fmt.Println("idcvault architecture level checker")
	fmt.Println()
	fmt.Println("  Level 1 (CMD):          cmd/, tools/")
	fmt.Println("  Level 2 (PRESENTATION): internal/output")
	fmt.Println("  Level 3 (INTEGRATION):  internal/collectors, internal/storage")
	fmt.Println("  Level 4 (ERRORS):       internal/errors")
	fmt.Println("  Level 5 (CORE):         internal/differ")
	fmt.Println("  Level 6 (FOUNDATION):   internal/logger, internal/cache")
	fmt.Println("  Level 7 (PKG):          pkg/")
	fmt.Println()

	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	n, err := check(root, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if n > 0 {
		os.Exit(1)
	}
}
