// Package config provides configuration management for the registrar.
//
// Settings start from built-in defaults, are overridden by the YAML file at
// $REGISTRAR_CONFIG_PATH/registrar.yml (default /etc/registrar), and finally
// by REGISTRAR_* environment variables. The source of every attribute is
// tracked and shown by `registrarctl configuration show`.
//
// # Key Configuration Options
//
//   - REGISTRAR_TOKEN_TTL: token lifetime in seconds
//   - REGISTRAR_BCRYPT_COST: password hashing work factor
//   - REGISTRAR_ADMIN_REGISTRATION: bootstrap, open or closed
//   - REGISTRAR_CORS_ALLOWED_ORIGINS: comma-separated origins
//   - REGISTRAR_LIST_LIMIT_MAX: largest page served by range listing
//   - REGISTRAR_LOG_LEVEL: Logging verbosity
//   - REGISTRAR_DATABASE_DRIVER: postgres or sqlite
//
// Secrets are never read from the file: DATABASE_URL and REGISTRAR_APP_KEY
// come from the environment only.
package config
