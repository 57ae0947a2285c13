package cache

// Query keys are scoped by session so one user's cached lists never leak
// into another's render.

func ProjectsKey(sid string) string {
	return "projects:v1:" + sid
}

func ProjectKey(sid, id string) string {
	return "project:v1:" + sid + ":" + id
}

func UsersKey(sid string) string {
	return "users:v1:" + sid
}

func InvitesKey(sid string) string {
	return "invites:v1:" + sid
}
