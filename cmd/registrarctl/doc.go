// Command registrarctl runs and manages the registrar API server.
//
// The registrar keeps departments, programs, courses, sections, instructors
// and students. Administrators manage the records; students register with
// sections; instructors define grade types and give grades.
//
// # Quick Start
//
//	# Generate the token signing key
//	export REGISTRAR_APP_KEY=$(registrarctl app-key generate)
//
//	# Run database migrations
//	registrarctl db migrate
//
//	# Create the first administrator
//	registrarctl admin create --email root@example.edu --first-name Root --last-name Admin
//
//	# Start the server
//	registrarctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string, or a SQLite file path
//   - REGISTRAR_APP_KEY: Base64-encoded token signing key of at least 32 bytes
//   - REGISTRAR_CONFIG_PATH: Directory holding registrar.yml (default: /etc/registrar)
//   - REGISTRAR_DATABASE_DRIVER: postgres (default) or sqlite
//   - REGISTRAR_LOG_LEVEL: Log level (debug, info, warn, error)
//   - AUDIT_DATABASE_URL: Optional PostgreSQL database for audit records
//   - PORT: Server port (default: 8000)
package main
