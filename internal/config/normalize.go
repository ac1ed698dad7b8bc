package config

import "strings"

func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = expanded

	c.GCloud.Project = strings.TrimSpace(c.GCloud.Project)
	c.GCloud.Binary = strings.TrimSpace(c.GCloud.Binary)
	c.Rotation.Mode = strings.ToLower(strings.TrimSpace(c.Rotation.Mode))
	c.Rotation.FilePrefix = strings.TrimSpace(c.Rotation.FilePrefix)
	if c.Rotation.FilePrefix == "" {
		c.Rotation.FilePrefix = defaultFilePrefix
	}
	return nil
}
