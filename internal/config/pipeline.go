package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/**
 * Stage definition inside pipeline.yaml
 * @property {string} name - Stage name (e.g. "build-artifact")
 * @property {string} command - Command executed for this stage
 * @property {[]string} args - Command arguments
 * @property {bool} blocking - Whether a failure aborts the run (default true)
 */
type StageSpec struct {
	Name     string   `yaml:"name"`
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	WorkDir  string   `yaml:"work_dir"`
	Blocking *bool    `yaml:"blocking"`
}

// IsBlocking 未显式配置时阶段默认为阻断
func (s *StageSpec) IsBlocking() bool {
	if s.Blocking == nil {
		return true
	}
	return *s.Blocking
}

// PipelineSpec pipeline.yaml顶层结构，只描述构建段的命令阶段；
// 停旧实例/部署/健康验证由编排器内置，不在文件中配置
type PipelineSpec struct {
	Name   string      `yaml:"name"`
	Stages []StageSpec `yaml:"stages"`
}

/**
 * Load pipeline stage definitions from a YAML file
 * @param {string} path - Path to pipeline.yaml
 * @returns {(*PipelineSpec, error)} Parsed spec or validation error
 * @description
 * - Parses the ordered stage list with yaml.v3
 * - Rejects stages without name or command
 */
func LoadPipeline(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return ParsePipeline(data)
}

func ParsePipeline(data []byte) (*PipelineSpec, error) {
	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file: %w", err)
	}
	if len(spec.Stages) == 0 {
		return nil, fmt.Errorf("pipeline must define at least one stage")
	}
	seen := map[string]bool{}
	for i, st := range spec.Stages {
		if st.Name == "" {
			return nil, fmt.Errorf("stages[%d]: name is required", i)
		}
		if st.Command == "" {
			return nil, fmt.Errorf("stage %q: command is required", st.Name)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("stage %q: duplicate stage name", st.Name)
		}
		seen[st.Name] = true
	}
	return &spec, nil
}
