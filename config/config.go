package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"clipgen/internal/appdirs"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type AppConfig struct {
	WorkDir     string `toml:"work_dir"`
	FfmpegPath  string `toml:"ffmpeg_path"`
	FfprobePath string `toml:"ffprobe_path"`
	Proxy       string `toml:"proxy"`

	ParsedProxy *url.URL `toml:"-"`
}

type TranscribeConfig struct {
	BaseUrl       string  `toml:"base_url"`
	ApiKey        string  `toml:"api_key"`
	Model         string  `toml:"model"`
	WindowSeconds float64 `toml:"window_seconds"`
}

type SceneConfig struct {
	ContentThreshold    float64 `toml:"content_threshold"`
	AdaptiveSensitivity float64 `toml:"adaptive_sensitivity"`
	HashMaxDistance     int     `toml:"hash_max_distance"`
	MinSceneLenFrames   int     `toml:"min_scene_len_frames"`
	MinDurationSeconds  float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds  float64 `toml:"max_duration_seconds"`
	FusionEpsilon       float64 `toml:"fusion_epsilon"`
}

type SelectConfig struct {
	MinWords int `toml:"min_words"`
	MaxClips int `toml:"max_clips"`
}

type RenderConfig struct {
	CropWidth  int    `toml:"crop_width"`
	CropHeight int    `toml:"crop_height"`
	Preset     string `toml:"preset"`
}

type SupabaseConfig struct {
	Url              string `toml:"url"`
	Key              string `toml:"key"`
	UploadBucket     string `toml:"upload_bucket"`
	ClipBucket       string `toml:"clip_bucket"`
	ThumbnailBucket  string `toml:"thumbnail_bucket"`
	TranscriptBucket string `toml:"transcript_bucket"`
	ProjectTable     string `toml:"project_table"`
	ClipTable        string `toml:"clip_table"`
}

type QueueConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Concurrency   int    `toml:"concurrency"`
}

type LlmConfig struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	App        AppConfig        `toml:"app"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Scene      SceneConfig      `toml:"scene"`
	Select     SelectConfig     `toml:"select"`
	Render     RenderConfig     `toml:"render"`
	Supabase   SupabaseConfig   `toml:"supabase"`
	Queue      QueueConfig      `toml:"queue"`
	Llm        LlmConfig        `toml:"llm"`
}

var Conf Config

var resolveConfigPath = defaultConfigPath

func defaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("CLIPGEN_CONFIG")); p != "" {
		return p, nil
	}
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8888,
		},
		App: AppConfig{},
		Transcribe: TranscribeConfig{
			Model:         "whisper-1",
			WindowSeconds: 30,
		},
		Scene: SceneConfig{
			ContentThreshold:    0.4,
			AdaptiveSensitivity: 3.0,
			HashMaxDistance:     10,
			MinSceneLenFrames:   15,
			MinDurationSeconds:  5,
			MaxDurationSeconds:  60,
			FusionEpsilon:       0.4,
		},
		Select: SelectConfig{
			MinWords: 20,
			MaxClips: 3,
		},
		Render: RenderConfig{
			CropWidth:  720,
			CropHeight: 1280,
			Preset:     "medium",
		},
		Supabase: SupabaseConfig{
			UploadBucket:     "uploads",
			ClipBucket:       "clips",
			ThumbnailBucket:  "thumbnails",
			TranscriptBucket: "transcripts",
			ProjectTable:     "projects",
			ClipTable:        "clips",
		},
		Queue: QueueConfig{
			RedisDB:     0,
			Concurrency: 2,
		},
		Llm: LlmConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// LoadOrCreateConfig reads config.toml, writing the default file first if it
// does not exist. Environment variables override file values afterwards.
// Returns whether a new file was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	created := false
	if _, err = os.Stat(configPath); os.IsNotExist(err) {
		Conf = defaultConfig()
		if err = applyWorkDirDefault(); err != nil {
			return false, err
		}
		if err = SaveConfig(); err != nil {
			return false, fmt.Errorf("failed to write default config: %w", err)
		}
		created = true
	} else {
		Conf = defaultConfig()
		if _, err = toml.DecodeFile(configPath, &Conf); err != nil {
			return false, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	applyEnvOverrides()
	if err = applyWorkDirDefault(); err != nil {
		return created, err
	}
	if Conf.App.Proxy != "" {
		parsed, err := url.Parse(Conf.App.Proxy)
		if err != nil {
			return created, fmt.Errorf("invalid app.proxy %q: %w", Conf.App.Proxy, err)
		}
		Conf.App.ParsedProxy = parsed
	}
	return created, nil
}

// applyWorkDirDefault fills App.WorkDir from the platform layout when neither
// the config file nor the environment set one.
func applyWorkDirDefault() error {
	if strings.TrimSpace(Conf.App.WorkDir) != "" {
		return nil
	}
	paths, err := appdirs.Resolve()
	if err != nil {
		return fmt.Errorf("could not resolve default work dir: %w", err)
	}
	Conf.App.WorkDir = paths.WorkDir
	return nil
}

// SaveConfig writes the current Conf to the resolved config path, creating
// parent directories as needed.
func SaveConfig() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

// applyEnvOverrides loads .env if present and lets CLIPGEN_* variables win over
// file values. Secrets are expected to arrive this way in deployments.
func applyEnvOverrides() {
	_ = godotenv.Load()

	overrideString(&Conf.Supabase.Url, "SUPABASE_URL")
	overrideString(&Conf.Supabase.Key, "SUPABASE_KEY")
	overrideString(&Conf.Transcribe.ApiKey, "OPENAI_API_KEY")
	overrideString(&Conf.Transcribe.BaseUrl, "CLIPGEN_TRANSCRIBE_BASE_URL")
	overrideString(&Conf.Llm.ApiKey, "OPENAI_API_KEY")
	overrideString(&Conf.Llm.BaseUrl, "CLIPGEN_LLM_BASE_URL")
	overrideString(&Conf.App.WorkDir, "CLIPGEN_WORK_DIR")
	overrideString(&Conf.Queue.RedisAddr, "CLIPGEN_REDIS_ADDR")
	overrideString(&Conf.Server.Host, "CLIPGEN_HOST")
	overrideInt(&Conf.Server.Port, "CLIPGEN_PORT")
}

func overrideString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// CheckConfig validates values the pipeline cannot run without or would
// misbehave with.
func CheckConfig() error {
	if Conf.Transcribe.WindowSeconds <= 0 {
		return fmt.Errorf("transcribe.window_seconds must be positive, got %v", Conf.Transcribe.WindowSeconds)
	}
	if Conf.Scene.MinDurationSeconds <= 0 {
		return fmt.Errorf("scene.min_duration_seconds must be positive, got %v", Conf.Scene.MinDurationSeconds)
	}
	if Conf.Scene.MaxDurationSeconds < Conf.Scene.MinDurationSeconds {
		return fmt.Errorf("scene.max_duration_seconds (%v) must be >= scene.min_duration_seconds (%v)",
			Conf.Scene.MaxDurationSeconds, Conf.Scene.MinDurationSeconds)
	}
	if Conf.Scene.FusionEpsilon < 0 {
		return fmt.Errorf("scene.fusion_epsilon must not be negative, got %v", Conf.Scene.FusionEpsilon)
	}
	if Conf.Select.MaxClips <= 0 {
		return fmt.Errorf("select.max_clips must be positive, got %d", Conf.Select.MaxClips)
	}
	if Conf.Select.MinWords < 0 {
		return fmt.Errorf("select.min_words must not be negative, got %d", Conf.Select.MinWords)
	}
	if Conf.Render.CropWidth <= 0 || Conf.Render.CropHeight <= 0 {
		return fmt.Errorf("render crop dimensions must be positive, got %dx%d",
			Conf.Render.CropWidth, Conf.Render.CropHeight)
	}
	return nil
}
