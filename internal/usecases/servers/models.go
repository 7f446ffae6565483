package servers

import "github.com/dukex/dno/pkg/schema"

type OS string

const (
	OSWindows OS = "WINDOWS"
	OSLinux   OS = "LINUX"
)

// VC is a virtualization cluster as reported by the client.
type VC struct {
	CPUAvailable    int `json:"cpu_available"`
	MemoryAvailable int `json:"memory_available"`
	HDDAvailable    int `json:"hdd_available"`
	CPU             int `json:"cpu"`
	Memory          int `json:"memory"`
	HDD             int `json:"hdd"`
}

type VCList struct {
	Result []VC `json:"result"`
}

type CreateVMArgs struct {
	Name   string `json:"name"`
	CPU    int    `json:"cpu"`
	Memory int    `json:"memory"`
	HDD    int    `json:"hdd"`
}

type CreateVMResult struct {
	ID string `json:"id"`
}

type InstallOSResult struct {
	ID       string `json:"id"`
	OS       OS     `json:"os"`
	Username string `json:"username"`
	Password string `json:"password"`
	IP       string `json:"ip"`
}

type CreateServerResult struct {
	ID       string `json:"id"`
	OS       OS     `json:"os"`
	Username string `json:"username"`
	Password string `json:"password"`
	IP       string `json:"ip"`
}

func osProperty() *schema.Property {
	return schema.Enum(string(OSWindows), string(OSLinux))
}

func vcProperty() *schema.Property {
	return schema.ObjectOf(
		schema.Required("cpu_available", schema.Integer()),
		schema.Required("memory_available", schema.Integer()),
		schema.Required("hdd_available", schema.Integer()),
		schema.Required("cpu", schema.Integer()),
		schema.Required("memory", schema.Integer()),
		schema.Required("hdd", schema.Integer()),
	)
}

var (
	vcListSchema = schema.MustObject(
		schema.Required("result", schema.ArrayOf(vcProperty())),
	)

	createVMArgsSchema = schema.MustStrict(
		schema.Required("name", schema.String()),
		schema.Required("cpu", schema.Integer()),
		schema.Required("memory", schema.Integer()),
		schema.Required("hdd", schema.Integer()),
	)

	createVMResultSchema = schema.MustObject(
		schema.Required("id", schema.String()),
	)

	installOSArgsSchema = schema.MustStrict(
		schema.Required("id", schema.String()),
	)

	installOSResultSchema = schema.MustObject(
		schema.Required("id", schema.String()),
		schema.Required("os", osProperty()),
		schema.Required("username", schema.String()),
		schema.Required("password", schema.String()),
		schema.Required("ip", schema.String()),
	)

	createServerAttributes = schema.MustStrict(
		schema.Required("name", schema.String()),
		schema.Required("cpu", schema.Integer()),
		schema.Required("memory", schema.Integer()),
		schema.Required("hdd", schema.Integer()),
	)

	createServerResultSchema = schema.MustObject(
		schema.Required("id", schema.String()),
		schema.Required("os", osProperty()),
		schema.Required("username", schema.String()),
		schema.Required("password", schema.String()),
		schema.Required("ip", schema.String()),
	)
)
