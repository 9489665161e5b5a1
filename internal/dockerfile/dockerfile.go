// Package dockerfile detects project types and synthesizes Dockerfiles for
// repositories that do not ship their own.
package dockerfile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/imagebuilder/internal/logfields"
)

// ProjectType enumerates the build strategies a repository can map to.
type ProjectType string

const (
	TypeNode    ProjectType = "node"
	TypeStatic  ProjectType = "static"
	TypeDefault ProjectType = "default"
)

// templates holds the canonical Dockerfile text per project type. The map
// is process-wide and immutable; the build API promises these exact files.
var templates = map[ProjectType]string{
	TypeStatic: `FROM nginx:alpine
COPY . /usr/share/nginx/html
EXPOSE 80
CMD ["nginx", "-g", "daemon off;"]`,

	TypeNode: `FROM node:16-alpine
WORKDIR /app
COPY package*.json ./
RUN npm install
COPY . .
CMD ["npm", "start"]`,

	TypeDefault: `FROM alpine
COPY . /app
WORKDIR /app
CMD ["ls", "-la"]`,
}

// Template returns the Dockerfile text for a project type. Unknown types
// fall back to the default template.
func Template(t ProjectType) string {
	if tpl, ok := templates[t]; ok {
		return tpl
	}
	return templates[TypeDefault]
}

// Detect inspects a checked-out repository and picks a project type from
// marker files at its root. First match wins: package.json beats
// index.html, anything else is a default build.
func Detect(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "package.json")) {
		return TypeNode
	}
	if fileExists(filepath.Join(dir, "index.html")) {
		return TypeStatic
	}
	return TypeDefault
}

// Exists reports whether the repository ships its own Dockerfile.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, "Dockerfile"))
}

// Ensure writes a synthesized Dockerfile for the detected project type when
// the repository does not ship one. A repository-supplied Dockerfile is
// never touched. Returns the project type and whether a file was written.
func Ensure(dir string) (ProjectType, bool, error) {
	if Exists(dir) {
		return "", false, nil
	}

	projectType := Detect(dir)
	if err := write(dir, projectType); err != nil {
		return projectType, false, err
	}

	slog.Info("Generated Dockerfile", logfields.ProjectType(string(projectType)), logfields.Path(dir))
	return projectType, true, nil
}

// WantsStaticOverride reports whether a repository URL points at a static
// hosting site, in which case the static template is forced before generic
// detection gets a say.
func WantsStaticOverride(repoURL string) bool {
	return strings.Contains(strings.ToLower(repoURL), "github.io")
}

// EnsureStatic force-writes the static template unless the repository ships
// its own Dockerfile. Returns whether a file was written.
func EnsureStatic(dir string) (bool, error) {
	if Exists(dir) {
		return false, nil
	}
	if err := write(dir, TypeStatic); err != nil {
		return false, err
	}
	slog.Info("Auto-generated static site Dockerfile", logfields.Path(dir))
	return true, nil
}

func write(dir string, t ProjectType) error {
	return os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(Template(t)), 0o644)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
