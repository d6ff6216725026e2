package service

import "QA_Community/internal/model"

// 社区与收藏夹的全部授权判断集中在这里，handler 只校验请求格式

// CanViewCommunity 公开社区任何人可见；私有社区仅参与者与管理员可见
func CanViewCommunity(c *model.Community, who string) bool {
	if !c.IsPrivate() {
		return true
	}
	return who != "" && c.HasParticipant(who)
}

// CheckToggleMembership 返回 true 表示本次是加入，false 表示退出；管理员不能退出
func CheckToggleMembership(c *model.Community, who string) (bool, error) {
	if who == c.Admin {
		return false, Forbidden("admins cannot leave their community")
	}
	return !c.HasParticipant(who), nil
}

func CheckDeleteCommunity(c *model.Community, who string) error {
	if who != c.Admin {
		return Forbidden("Unauthorized: only the community admin can delete this community")
	}
	return nil
}

// CheckPostToCommunity 只有参与者能在社区里提问
func CheckPostToCommunity(c *model.Community, who string) error {
	if !c.HasParticipant(who) {
		return Forbidden("not a member of this community")
	}
	return nil
}

func CanViewCollection(c *model.Collection, who string) bool {
	return !c.IsPrivate || who == c.Username
}

// CheckCollectionOwner 删除和增删问题都只允许拥有者
func CheckCollectionOwner(c *model.Collection, who string) error {
	if who != c.Username {
		return Forbidden("only the collection owner can modify this collection")
	}
	return nil
}
