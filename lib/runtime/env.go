package runtime

// Env is where the benchmark process runs. Containers share the host CPU,
// so a run recorded in a container is not comparable with a bare host run.
type Env string

const (
	EnvHost       Env = "host"
	EnvDocker     Env = "docker"
	EnvKubernetes Env = "kubernetes"
)

// DetectEnv prefers kubernetes over docker, a pod is a container too.
func DetectEnv() Env {
	switch {
	case IsRunningAtKubernetes():
		return EnvKubernetes
	case IsRunningAtDocker():
		return EnvDocker
	default:
	}
	return EnvHost
}
