package utils

import "context"

type contextKey string

const AdminEmailKey contextKey = "admin_email"

// SetAdminContext stores the authenticated admin (called by middleware)
func SetAdminContext(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, AdminEmailKey, email)
}

func GetAdminEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(AdminEmailKey).(string)
	return email, ok && email != ""
}
