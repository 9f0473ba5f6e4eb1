package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	RPCURL        string // Ethereum JSON-RPC endpoint
	ChainID       int64  // EIP-155 chain id
	KcodeContract string // KCODE ERC-20 contract address
	SignerKey     string // Hex private key of the backend reward signer

	CommunityReserve string // Community reserve address (user rewards)
	TeamReserve      string // Team allocation address
	LiquidityReserve string // Liquidity pool address
	TreasuryReserve  string // Treasury address

	AdminWallets []string // Allowlisted admin wallet addresses (lowercased)

	DiscordClientID     string // Discord OAuth client id
	DiscordClientSecret string // Discord OAuth client secret
	DiscordRedirectURI  string // Discord OAuth redirect URI
	DiscordGuildID      string // Guild the user must be a member of
	TelegramBotToken    string // Telegram bot token (login widget + membership check)
	TelegramChannel     string // Channel the user must join, e.g. @kabbalahcode
	TwitterHandle       string // Official account a verification post must mention
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	chainID, _ := strconv.ParseInt(getEnv("CHAIN_ID", "1"), 10, 64)
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),             // Application port
		DBUser:     os.Getenv("DB_USER"),                   // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),               // Database password
		DBHost:     getEnv("DB_HOST", "localhost"),         // Database host
		DBPort:     getEnv("DB_PORT", "3306"),              // Database port
		DBName:     os.Getenv("DB_NAME"),                   // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),                // JWT secret key
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"), // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),                // Redis password
		RedisDB:    redisDB,                                // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",         // Is production environment

		RPCURL:        os.Getenv("RPC_URL"),        // Ethereum JSON-RPC endpoint
		ChainID:       chainID,                     // EIP-155 chain id
		KcodeContract: os.Getenv("KCODE_CONTRACT"), // KCODE contract address
		SignerKey:     os.Getenv("SIGNER_KEY"),     // Backend signer private key

		CommunityReserve: os.Getenv("COMMUNITY_RESERVE"), // Community reserve address
		TeamReserve:      os.Getenv("TEAM_RESERVE"),      // Team allocation address
		LiquidityReserve: os.Getenv("LIQUIDITY_RESERVE"), // Liquidity pool address
		TreasuryReserve:  os.Getenv("TREASURY_RESERVE"),  // Treasury address

		AdminWallets: splitLower(os.Getenv("ADMIN_WALLETS")), // Comma-separated allowlist

		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),           // Discord OAuth client id
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),       // Discord OAuth client secret
		DiscordRedirectURI:  os.Getenv("DISCORD_REDIRECT_URI"),        // Discord OAuth redirect URI
		DiscordGuildID:      os.Getenv("DISCORD_GUILD_ID"),            // Required guild id
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),          // Telegram bot token
		TelegramChannel:     os.Getenv("TELEGRAM_CHANNEL"),            // Required channel
		TwitterHandle:       getEnv("TWITTER_HANDLE", "KabbalahCode"), // Official handle
	}
}

// getEnv returns the value of an environment variable or a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value // Use the configured value
	}
	return fallback // Fall back to the default
}

// splitLower splits a comma-separated list and lowercases each entry
func splitLower(s string) []string {
	if s == "" {
		return nil // Empty allowlist
	}
	parts := strings.Split(s, ",") // Split on commas
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p)) // Normalize for comparison
		}
	}
	return out
}
