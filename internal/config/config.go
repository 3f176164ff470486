package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Graph    GraphConfig
	Storage  StorageConfig
	Models   ModelDefaults
	Worker   WorkerConfig
	Engine   EngineConfig
}

// EngineConfig selects the processing engine. When RemoteURL is empty the
// built-in stub engine runs instead of the external sidecar.
type EngineConfig struct {
	RemoteURL string
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type GraphConfig struct {
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPassword string
}

type StorageConfig struct {
	UploadDir string
	VectorDir string
}

// ModelDefaults are the process-wide fallbacks used when neither the request
// nor the knowledge base binds a model for a role.
type ModelDefaults struct {
	LLM          ModelCredentials
	VLM          ModelCredentials
	Embedding    ModelCredentials
	EmbeddingDim int
	Language     string
}

type ModelCredentials struct {
	Provider  string
	ModelName string
	APIKey    string
	BaseURL   string
}

type WorkerConfig struct {
	PoolSize     int
	ProcessTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Graph: GraphConfig{
			Neo4jURL:      getEnv("NEO4J_URL", "neo4j://localhost:7687"),
			Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
			Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
			VectorDir: getEnv("VECTOR_DIR", "vector_storage"),
		},
		Models: ModelDefaults{
			LLM: ModelCredentials{
				Provider:  getEnv("DEFAULT_LLM_PROVIDER", "openai"),
				ModelName: getEnv("DEFAULT_LLM_MODEL", "gpt-4o-mini"),
				APIKey:    getEnv("OPENAI_API_KEY", ""),
				BaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			},
			VLM: ModelCredentials{
				Provider:  getEnv("DEFAULT_VLM_PROVIDER", "openai"),
				ModelName: getEnv("DEFAULT_VLM_MODEL", "gpt-4o"),
				APIKey:    getEnv("OPENAI_API_KEY", ""),
				BaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			},
			Embedding: ModelCredentials{
				Provider:  getEnv("DEFAULT_EMBEDDING_PROVIDER", "openai"),
				ModelName: getEnv("DEFAULT_EMBEDDING_MODEL", "text-embedding-3-small"),
				APIKey:    getEnv("EMBEDDING_API_KEY", ""),
				BaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
			},
			EmbeddingDim: getEnvAsInt("DEFAULT_EMBEDDING_DIM", 1536),
			Language:     getEnv("EXTRACTION_LANGUAGE", "English"),
		},
		Worker: WorkerConfig{
			PoolSize:     getEnvAsInt("WORKER_POOL_SIZE", 4),
			ProcessTopic: getEnv("PROCESS_DOCUMENT_TOPIC_NAME", "PROCESS_DOCUMENT"),
		},
		Engine: EngineConfig{
			RemoteURL: getEnv("RAG_ENGINE_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
