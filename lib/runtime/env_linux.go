//go:build linux
// +build linux

package runtime

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

const (
	dockerEnvPath                = "/.dockerenv"                                             // unstable
	dockerBlockPath              = "/dev/block"                                              // stable
	kubernetesServiceAccountPath = "/var/run/secrets/kubernetes.io/serviceaccount/namespace" // stable
	procSelfCgroupPath           = "/proc/self/cgroup"
)

func isRunningAtDocker(dockerEnv, blockDir string) bool {
	stat, err := os.Stat(dockerEnv)
	if err != nil && os.IsNotExist(err) {
		// A container runs without block devices.
		_, err = os.Stat(blockDir)
		return err != nil && os.IsNotExist(err)
	}
	return err == nil && !stat.IsDir()
}

func IsRunningAtDocker() bool {
	return isRunningAtDocker(dockerEnvPath, dockerBlockPath)
}

func isRunningAtKubernetes(namespaceFile string) bool {
	stat, err := os.Stat(namespaceFile)
	if err != nil {
		return false
	}
	return !stat.IsDir() && stat.Size() > 0
}

func IsRunningAtKubernetes() bool {
	return isRunningAtKubernetes(kubernetesServiceAccountPath)
}

const (
	uuidSource      = "[0-9a-f]{8}[-_][0-9a-f]{4}[-_][0-9a-f]{4}[-_][0-9a-f]{4}[-_][0-9a-f]{12}|[0-9a-f]{8}(?:-[0-9a-f]{4}){4}$"
	containerSource = "[0-9a-f]{64}"
	taskSource      = "[0-9a-f]{32}-\\d+"
)

var (
	// /proc/self/cgroup line example:
	// 0::/kubepods.slice/kubepods-besteffort.slice/kubepods-besteffort-pode6ac4a8d_1076_453e_9ddb_3976520e3178.slice/cri-containerd-19cd7a809d879d9c855bb93e4d399efe795a769ac856faaa5256cdd8387fe4b1.scope
	procSelfCgroupLineRegex = regexp.MustCompile(`^\d+:[^:]*:(.+)$`)
	containerIDRegex        = regexp.MustCompile(fmt.Sprintf(`(%s|%s|%s)(?:.scope)?$`, uuidSource, containerSource, taskSource))
)

func parseContainerID(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		path := procSelfCgroupLineRegex.FindStringSubmatch(scanner.Text())
		if len(path) != 2 {
			continue
		}
		if parts := containerIDRegex.FindStringSubmatch(path[1]); len(parts) == 2 {
			return parts[1]
		}
	}
	return ""
}

// LoadContainerID is empty outside a container or when the cgroup file is
// not readable.
func LoadContainerID() string {
	f, err := os.Open(procSelfCgroupPath)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	return parseContainerID(f)
}
