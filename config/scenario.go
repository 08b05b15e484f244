package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario 一个命名场景，Override 会递归覆盖基础配置
type Scenario struct {
	Name     string
	Override map[string]any
}

// LoadScenarios 读取场景文件，按文件中出现的顺序返回
//
// 文件格式:
//
//	scenario_name:
//	  traffic: {density: 0.3, steps: 200, seed: 7}
//
// 空文件返回 nil
func LoadScenarios(filename string) ([]Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level must be a mapping of scenario names", filename)
	}

	scenarios := make([]Scenario, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		override := map[string]any{}
		if err := root.Content[i+1].Decode(&override); err != nil {
			return nil, fmt.Errorf("%s: scenario %q: %w", filename, name, err)
		}
		if override == nil {
			override = map[string]any{}
		}
		scenarios = append(scenarios, Scenario{Name: name, Override: override})
	}
	return scenarios, nil
}

// DeepUpdate 递归地用 override 覆盖 base，返回新的 map，不修改 base
// 两边都是 map 时继续深入，否则直接替换
func DeepUpdate(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if bv, ok := result[k].(map[string]any); ok {
			if ov, ok := v.(map[string]any); ok {
				result[k] = DeepUpdate(bv, ov)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// Resolve 将场景覆盖到基础配置上并解码
func Resolve(base map[string]any, sc Scenario) (*Config, error) {
	cfg, err := Decode(DeepUpdate(base, sc.Override))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return cfg, nil
}
