package registry

import (
	"sort"

	"github.com/mtb-build/mtb/internal/tags"
)

// DependencyAnalyzer inspects the reference graph between registered
// components without compiling anything.
type DependencyAnalyzer struct {
	registry *ComponentRegistry
}

// NewDependencyAnalyzer creates a new dependency analyzer
func NewDependencyAnalyzer(registry *ComponentRegistry) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		registry: registry,
	}
}

// AnalyzeContent returns the component names referenced by content, in order
// of first appearance.
func (da *DependencyAnalyzer) AnalyzeContent(content string) []string {
	return tags.Names(content)
}

// GetDependencies returns the names referenced directly by a component.
func (da *DependencyAnalyzer) GetDependencies(name string) ([]string, error) {
	content, err := da.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return da.AnalyzeContent(content), nil
}

// GetDependencyGraph maps every registered component to the names it
// references, including names that are not registered.
func (da *DependencyAnalyzer) GetDependencyGraph() map[string][]string {
	snapshot := da.registry.Snapshot()

	graph := make(map[string][]string, len(snapshot))
	for name, content := range snapshot {
		graph[name] = da.AnalyzeContent(content)
	}
	return graph
}

// GetDependents returns the components that reference name directly, sorted.
func (da *DependencyAnalyzer) GetDependents(name string) []string {
	var dependents []string

	for component, deps := range da.GetDependencyGraph() {
		for _, dep := range deps {
			if dep == name {
				dependents = append(dependents, component)
				break
			}
		}
	}

	sort.Strings(dependents)
	return dependents
}

// FindMissingReferences maps each component to the referenced names that are
// not registered. Components without missing references are omitted.
func (da *DependencyAnalyzer) FindMissingReferences() map[string][]string {
	graph := da.GetDependencyGraph()
	missing := make(map[string][]string)

	for name, deps := range graph {
		for _, dep := range deps {
			if _, ok := graph[dep]; !ok {
				missing[name] = append(missing[name], dep)
			}
		}
	}

	return missing
}

// DetectCircularDependencies returns every cycle found by a depth-first walk
// of the graph. Each cycle starts and ends with the same name, for example
// [A B A]. Roots are visited in lexical order so results are stable.
func (da *DependencyAnalyzer) DetectCircularDependencies() [][]string {
	var cycles [][]string
	graph := da.GetDependencyGraph()

	roots := make([]string, 0, len(graph))
	for name := range graph {
		roots = append(roots, name)
	}
	sort.Strings(roots)

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, component := range roots {
		if !visited[component] {
			cycles = append(cycles, da.detectCycleDFS(component, graph, visited, recStack, nil)...)
		}
	}

	return cycles
}

// detectCycleDFS performs DFS to detect cycles
func (da *DependencyAnalyzer) detectCycleDFS(component string, graph map[string][]string, visited, recStack map[string]bool, path []string) [][]string {
	var cycles [][]string

	visited[component] = true
	recStack[component] = true
	path = append(path, component)

	for _, dep := range graph[component] {
		if _, registered := graph[dep]; !registered {
			continue
		}

		if !visited[dep] {
			cycles = append(cycles, da.detectCycleDFS(dep, graph, visited, recStack, path)...)
			continue
		}

		if recStack[dep] {
			for i, p := range path {
				if p == dep {
					cycle := make([]string, len(path)-i+1)
					copy(cycle, path[i:])
					cycle[len(cycle)-1] = dep
					cycles = append(cycles, cycle)
					break
				}
			}
		}
	}

	recStack[component] = false
	return cycles
}
