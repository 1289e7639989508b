// Package auth handles user registration, login, and bearer-token sessions.
// Registration creates the user's company as a side effect, which seeds the
// tenant's default subscription.
package auth
