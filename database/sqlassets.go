package sqlassets

import _ "embed"

//go:embed schema/platform/companies.sql
var PlatformSQL string

//go:embed schema/platform/audit_logs.sql
var AuditLogsSQL string

//go:embed schema/tenant_space/company_users.sql
var TenantTablesSQL string

//go:embed schema/tenant_space/seed.sql
var TenantSeedSQL string

//go:embed schema/platform/support.sql
var SupportSQL string
