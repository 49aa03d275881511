package rule

// yamlRule is the intermediate struct for parsing one catalog entry.
type yamlRule struct {
	Name             string   `yaml:"rule_name"`
	Pattern          string   `yaml:"pattern"`
	Documentation    string   `yaml:"documentation"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
}

// yamlCatalogFile represents the top-level structure of a catalog YAML file:
// one category and its ordered rule list.
type yamlCatalogFile struct {
	Category        string     `yaml:"category"`
	CaseInsensitive bool       `yaml:"case_insensitive,omitempty"`
	DataRules       []yamlRule `yaml:"data_rules"`
}
