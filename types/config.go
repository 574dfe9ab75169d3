package types

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// generation types
	GenerateTopics   = "topics"
	GenerateKeywords = "keywords"
	GenerateFrames   = "frames"

	// keyword models
	KeywordModelTfIdf = "tf-idf"
	KeywordModelLDA   = "lda"

	// window directions
	WindowLeft  = "left"
	WindowRight = "right"
	WindowBoth  = "both"
)

// Settings configures one generation run.
type Settings struct {
	GenerationType  string   `yaml:"gtype" json:"gtype"`
	DocLength       int      `yaml:"dlen" json:"dlen"`
	PosTag          bool     `yaml:"pos" json:"pos"`
	TopicCount      int      `yaml:"tcount" json:"tcount"`
	TopicSize       int      `yaml:"tsize" json:"tsize"`
	KeywordModel    string   `yaml:"kmodel" json:"kmodel"`
	KeywordCount    int      `yaml:"kcount" json:"kcount"`
	KeywordTags     []string `yaml:"ktags" json:"ktags"`
	WindowDirection string   `yaml:"wdir" json:"wdir"`
	WindowSize      int      `yaml:"wsize" json:"wsize"`
	FrameSize       int      `yaml:"fsize" json:"fsize"`
	FrameTags       []string `yaml:"ftags" json:"ftags"`
}

func DefaultSettings() Settings {
	return Settings{
		GenerationType:  GenerateFrames,
		DocLength:       0,
		PosTag:          true,
		TopicCount:      10,
		TopicSize:       10,
		KeywordModel:    KeywordModelLDA,
		KeywordCount:    10,
		KeywordTags:     []string{},
		WindowDirection: WindowBoth,
		WindowSize:      5,
		FrameSize:       10,
		FrameTags:       []string{},
	}
}

// LoadSettings reads a YAML settings file on top of the defaults.
func LoadSettings(filePath string) (Settings, error) {
	settings := DefaultSettings()
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return settings, err
	}
	if err := yaml.Unmarshal(buf, &settings); err != nil {
		return settings, fmt.Errorf("%w: settings file %s: %v", ErrInvalidConfig, filePath, err)
	}
	return settings, nil
}

func (settings Settings) Validate() error {
	switch settings.GenerationType {
	case GenerateTopics, GenerateKeywords, GenerateFrames:
	default:
		return fmt.Errorf("%w: unknown generation type %q", ErrInvalidConfig, settings.GenerationType)
	}
	if settings.GenerationType != GenerateTopics {
		switch settings.KeywordModel {
		case KeywordModelTfIdf, KeywordModelLDA:
		default:
			return fmt.Errorf("%w: unknown keyword model %q", ErrInvalidConfig, settings.KeywordModel)
		}
	}
	switch settings.WindowDirection {
	case "", WindowBoth, WindowLeft, WindowRight:
	default:
		return fmt.Errorf("%w: unknown window direction %q", ErrInvalidConfig, settings.WindowDirection)
	}
	if settings.DocLength < 0 || settings.TopicCount < 0 || settings.TopicSize < 0 ||
		settings.KeywordCount < 0 || settings.WindowSize < 0 || settings.FrameSize < 0 {
		return fmt.Errorf("%w: sizes and counts must not be negative", ErrInvalidConfig)
	}
	if settings.usesTopics() && settings.TopicCount == 0 {
		return fmt.Errorf("%w: topic count must be positive", ErrInvalidConfig)
	}
	if !settings.PosTag && (len(settings.KeywordTags) > 0 || len(settings.FrameTags) > 0) {
		return fmt.Errorf("%w: keyword and frame tags require pos tagging", ErrInvalidConfig)
	}
	return nil
}

func (settings Settings) usesTopics() bool {
	return settings.GenerationType == GenerateTopics || settings.KeywordModel == KeywordModelLDA
}

// Direction returns the window direction with the empty value resolved to both sides.
func (settings Settings) Direction() string {
	if settings.WindowDirection == "" {
		return WindowBoth
	}
	return settings.WindowDirection
}

// SettingsRows lists the settings relevant to the generation type, in output order.
func (settings Settings) SettingsRows() [][2]string {
	rows := [][2]string{
		{"gtype", settings.GenerationType},
		{"dlen", strconv.Itoa(settings.DocLength)},
	}
	topicRows := [][2]string{
		{"tcount", strconv.Itoa(settings.TopicCount)},
		{"tsize", strconv.Itoa(settings.TopicSize)},
	}
	if settings.GenerationType == GenerateTopics {
		return append(rows, topicRows...)
	}
	rows = append(rows,
		[2]string{"kmodel", settings.KeywordModel},
		[2]string{"kcount", strconv.Itoa(settings.KeywordCount)},
		[2]string{"ktags", strings.Join(settings.KeywordTags, " ")},
	)
	if settings.KeywordModel == KeywordModelLDA {
		rows = append(rows, topicRows...)
	}
	if settings.GenerationType == GenerateFrames {
		rows = append(rows,
			[2]string{"wdir", settings.Direction()},
			[2]string{"wsize", strconv.Itoa(settings.WindowSize)},
			[2]string{"fsize", strconv.Itoa(settings.FrameSize)},
			[2]string{"ftags", strings.Join(settings.FrameTags, " ")},
		)
	}
	return rows
}
