// Package config handles configuration loading for inventory-api.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The package provides validation and sensible defaults, so a
// deployment can also run with no file at all and only INVENTORY_JWT_SECRET
// set.
//
// # Configuration File
//
// Locations (in order):
//
//  1. Path from the --config flag
//  2. Path from INVENTORY_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/inventory-api/config.yaml (~/.config when unset)
//
// Files ending in .toml are decoded as TOML; everything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${INVENTORY_JWT_SECRET}"
//
// INVENTORY_JWT_SECRET and INVENTORY_DB_PATH also override the file values
// directly when set.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:8080"
//
//	database:
//	  path: "inventory.db"
//
//	auth:
//	  jwt_secret: "at-least-32-bytes-of-secret-material"
//	  token_ttl: "24h"
//	  issuer: "inventory-api"
//	  principal_source: "memory"   # or "database"
//	  write_role: "ROLE_ADMIN"      # optional
//	  users:
//	    - username: "admin"
//	      password_hash: "$2a$10$..."
//	      roles: ["ROLE_ADMIN", "ROLE_USER"]
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "text"   # text or json
//
//	docs:
//	  enabled: true
package config
