package ann

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const maxLayerWidth = 16

var presets = map[string][]int{
	"perceptron": {2, 1},
	"shallow":    {3, 4, 2},
	"deep":       {3, 5, 5, 2},
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParseArchitecture accepts a preset name or a comma separated list of
// layer sizes such as "3,4,2".
func ParseArchitecture(s string) ([]int, error) {
	if p, ok := presets[s]; ok {
		return append([]int(nil), p...), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return nil, fmt.Errorf("architecture %q needs at least two layers", s)
	}
	layers := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("architecture %q: %w", s, err)
		}
		if n < 1 || n > maxLayerWidth {
			return nil, fmt.Errorf("architecture %q: layer %d size %d out of range [1,%d]", s, i, n, maxLayerWidth)
		}
		layers[i] = n
	}
	return layers, nil
}

func FormatArchitecture(layers []int) string {
	parts := make([]string, len(layers))
	for i, n := range layers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
