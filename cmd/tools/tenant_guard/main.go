// Command tenant_guard fails when a generated query reads or writes tenant
// data without a tenant_id predicate. Exit code 0 = ok, 1 = violation,
// 2 = other error.
package main

import (
	"flag"
	"fmt"
	"os"
)

// globalQueries run without a tenant_id predicate on purpose.
var globalQueries = map[string]string{
	"GetTenantBySlug":            "tenants is the root table",
	"GetTenantByID":              "tenants is the root table",
	"ListTenants":                "tenants is the root table",
	"UpdateTenantSettings":       "tenants is the root table",
	"GetUserByID":                "token subject lookup; callers compare tenant_id",
	"GetSessionByToken":          "refresh token hashes are globally unique",
	"RotateSessionToken":         "keyed by a session fetched through its token",
	"DeleteSessionByToken":       "refresh token hashes are globally unique",
	"CountPromotionUsageByUser":  "promotion id was resolved inside the tenant",
	"GetPromotionUsageByOrder":   "promotion id was resolved inside the tenant",
	"IncreasePromotionUsedCount": "promotion id was resolved inside the tenant",
	"LockBranchReservations":     "advisory lock, touches no rows",
}

func main() {
	dir := flag.String("dir", "internal/db/gen", "directory of generated query files")
	flag.Parse()

	violations, err := scan(*dir, globalQueries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tenant_guard error: %v\n", err)
		os.Exit(2)
	}
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "VIOLATION: %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Println("tenant_guard: OK")
}
