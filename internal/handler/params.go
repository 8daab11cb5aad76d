package handler

type LoginParams struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type UserParams struct {
	UserID   int64  `param:"user_id"`
	RoleID   int64  `json:"role_id"   form:"role_id"`
	Username string `json:"username"  form:"username"`
	Password string `json:"password"  form:"password"`
}

type ProjectParams struct {
	ProjectID     int64  `param:"project_id"`
	Name          string `json:"name"           form:"name"`
	RepoOwner     string `json:"repo_owner"     form:"repo_owner"`
	RepoName      string `json:"repo_name"      form:"repo_name"`
	DefaultBranch string `json:"default_branch" form:"default_branch"`
	HostingName   string `json:"hosting_name"   form:"hosting_name"`
	ForgeToken    string `json:"forge_token"    form:"forge_token"`
}

type DeploymentListParams struct {
	ProjectID int64 `param:"project_id"`
	Refresh   bool  `               query:"refresh"`
}

type HistoryParams struct {
	ProjectID int64 `param:"project_id"`
	Limit     int64 `               query:"limit"`
}

type TriggerDeployParams struct {
	ProjectID int64  `param:"project_id"`
	Ref       string `json:"ref" form:"ref"`
}

type RollbackParams struct {
	ProjectID     int64 `param:"project_id"`
	ExternalRunID int64 `json:"external_run_id" form:"external_run_id"`
}

type APIKeyParams struct {
	APIKeyID int64 `param:"api_key_id"`
}
